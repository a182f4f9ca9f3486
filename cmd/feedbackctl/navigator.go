package main

import (
	"fmt"
	"io"
)

// terminalNavigator tells the user where the web client would have sent them
type terminalNavigator struct {
	out io.Writer
}

func (n *terminalNavigator) ToLogin() {
	fmt.Fprintln(n.out, "Please log in with `feedbackctl login <username>`.")
}

func (n *terminalNavigator) ToDefault() {
	fmt.Fprintln(n.out, "You do not have access to that page. Try `feedbackctl stats`.")
}
