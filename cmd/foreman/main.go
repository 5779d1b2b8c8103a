// Command foreman answers queries with a supervised research and writing team.
package main

func main() {
	Execute()
}
