// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/llamagraph/llamagraph/internal/query"
)

// Session is the interactive query loop: it reads queries from in,
// dispatches them to the engine, and renders results to out until the
// user types exit or input ends.
type Session struct {
	Engine   *query.Engine
	Renderer Renderer
	In       io.Reader
	Out      io.Writer
}

// Run drives the loop. EOF and exit/quit both end the session normally.
func (s *Session) Run() error {
	fmt.Fprintln(s.Out, HintStyle.Render("Type a query, 'help' for commands, or 'exit' to leave."))

	scanner := bufio.NewScanner(s.In)
	for {
		fmt.Fprint(s.Out, PromptStyle.Render("🦙 > "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		result := s.Engine.Execute(line)
		fmt.Fprintln(s.Out, s.Renderer.Result(result))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading query input: %w", err)
	}
	fmt.Fprintln(s.Out, HintStyle.Render("Goodbye! The llama waves farewell."))
	return nil
}
