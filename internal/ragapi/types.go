package ragapi

import (
	"encoding/json"
	"slices"
)

// ClassifyResult is the parsed classifier response. HasIndex and HasCompanies
// distinguish an absent key from an empty value, so a malformed body is
// detectable instead of silently producing zero values.
type ClassifyResult struct {
	Index        string
	Companies    []string
	HasIndex     bool
	HasCompanies bool
	Raw          json.RawMessage
}

// Resolved reports whether the classifier settled on a member of the valid
// entity list.
func (r *ClassifyResult) Resolved() bool {
	return r.HasIndex && slices.Contains(r.Companies, r.Index)
}

// AnnualRecord is one year of a financial time series. Value carries a unit
// suffix ("$45.23 Billion"), Growth a percentage ("83.21" or "83.21%").
type AnnualRecord struct {
	Date   string `json:"Date"`
	Value  string `json:"Value"`
	Growth string `json:"Growth"`
}

// FinancialSeries is the structured annual data a retrieval response may
// carry under its "json" key.
type FinancialSeries struct {
	Label  string         `json:"Label"`
	Annual []AnnualRecord `json:"Annual Data"`
}

// RetrieveResult is the parsed retriever response. Raw keeps the complete
// body so it can be merged into the generation request untouched.
type RetrieveResult struct {
	HasResponse      bool
	Series           *FinancialSeries
	Error            string
	ErrorExplication string
	Raw              json.RawMessage
}

// Fatal reports whether the error field is the one retrieval error that
// halts the pipeline; every other error value is advisory.
func (r *RetrieveResult) Fatal() bool {
	return r.Error == "boto3 not implemented"
}

// GenerateResult is the parsed response-generation payload.
type GenerateResult struct {
	Result           string
	Context          string
	HasResult        bool
	HasContext       bool
	Error            string
	ErrorExplication string
	Raw              json.RawMessage
}

// Warning reports whether the error field is one of the two advisory prompt
// problems: the answer is still shown, downgraded to a warning.
func (r *GenerateResult) Warning() bool {
	return r.Error == "prompt does not contain context" || r.Error == "prompt does not contain tags"
}

func parseClassify(raw json.RawMessage) (*ClassifyResult, error) {
	fields, err := objectFields(raw)
	if err != nil {
		return nil, err
	}
	res := &ClassifyResult{Raw: raw}
	if v, ok := fields["index"]; ok && json.Unmarshal(v, &res.Index) == nil {
		res.HasIndex = true
	}
	if v, ok := fields["companies"]; ok && json.Unmarshal(v, &res.Companies) == nil {
		res.HasCompanies = true
	}
	return res, nil
}

func parseRetrieve(raw json.RawMessage) (*RetrieveResult, error) {
	fields, err := objectFields(raw)
	if err != nil {
		return nil, err
	}
	res := &RetrieveResult{Raw: raw}
	_, res.HasResponse = fields["response"]
	if v, ok := fields["error"]; ok {
		json.Unmarshal(v, &res.Error)
	}
	if v, ok := fields["error_explication"]; ok {
		json.Unmarshal(v, &res.ErrorExplication)
	}
	if v, ok := fields["json"]; ok {
		var series FinancialSeries
		if json.Unmarshal(v, &series) == nil && len(series.Annual) > 0 {
			res.Series = &series
		}
	}
	return res, nil
}

func parseGenerate(raw json.RawMessage) (*GenerateResult, error) {
	fields, err := objectFields(raw)
	if err != nil {
		return nil, err
	}
	res := &GenerateResult{Raw: raw}
	if v, ok := fields["result"]; ok && json.Unmarshal(v, &res.Result) == nil {
		res.HasResult = true
	}
	if v, ok := fields["context"]; ok && json.Unmarshal(v, &res.Context) == nil {
		res.HasContext = true
	}
	if v, ok := fields["error"]; ok {
		json.Unmarshal(v, &res.Error)
	}
	if v, ok := fields["error_explication"]; ok {
		json.Unmarshal(v, &res.ErrorExplication)
	}
	return res, nil
}

// objectFields splits a JSON object into its raw members. A non-object body
// counts as a transport failure: the contract says every endpoint returns an
// object.
func objectFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, ErrTransport
	}
	return fields, nil
}
