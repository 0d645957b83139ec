// ragchat is a terminal chat client for the finchat HTTP API.
package main

func main() {
	Execute()
}
