// Package main provides the satchel CLI, a local-first organizer of spaces
// holding task lists, reference lists, and notes.
package main

func main() {
	Execute()
}
