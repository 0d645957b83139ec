package chat

// User-facing texts. The lambda and CloudWatch references describe the
// deployed backends these diagnostics point workshop participants at.
const (
	placeholderContent = "Generating answer..."
	failedAnswer       = "Validation failed, no answer received."
	failedContext      = "Validation failed, no context received."

	diagClassifierLambda = "Lambda Error: You either forgot to enable Bedrock, or have some error in your code. " +
		"Please check the CloudWatch logs of your Classification Lambda to see what went wrong."
	diagRetrievalLambda = "Lambda Error: There seems to be a logic or syntax error in your code. " +
		"Please check the CloudWatch logs of your Retrieval Lambda to see what went wrong."
	diagResponseLambda = "Lambda Error: There seems to be a logic or syntax error in your code. " +
		"Please check the CloudWatch logs of your Response Generation Lambda to see what went wrong."

	diagClassifierBody = "Processing Error: Make sure that you have Bedrock enabled in your Account and that " +
		"the return body of the Classification Lambda contains an 'index' key."
	diagRetrievalBody = "Processing Error: Make sure the return body of the Retrival Lambda contains a " +
		"'response' key with a list of dictionaries that each have a 'page_content' and 'metadata' key."
	diagResponseBody = "Processing Error: Make sure the return body of the Response Generation Lambda " +
		"contains a 'result' key and a 'context' key."

	diagUnresolvedCompany = "Question Error: The classifier cannot determine which company you are asking about. " +
		"Please reword the question and be sure to be asking about %s."
	msgUnresolvedCompany = "It is unclear which company you are asking about. " +
		"Please reword the question and be sure to be asking about %s."
)
