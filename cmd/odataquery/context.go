package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/goccy/go-yaml"
	odata "github.com/nlstn/go-odata-query"
)

// Context is passed to every command.
type Context struct {
	context.Context

	Output string
	Stdout io.Writer
	Stderr io.Writer
	Parser *odata.Parser

	// rawQuery is kept for error rendering.
	rawQuery string
}

func newContext(cli *CLI, stdout, stderr io.Writer) *Context {
	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	opts := []odata.Option{
		odata.WithLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))),
	}
	if len(cli.Formats) > 0 {
		formats := make([]odata.Format, len(cli.Formats))
		for i, f := range cli.Formats {
			formats[i] = odata.Format(strings.TrimSpace(f))
		}
		opts = append(opts, odata.WithSupportedFormats(formats...))
	}

	return &Context{
		Context: context.Background(),
		Output:  cli.Output,
		Stdout:  stdout,
		Stderr:  stderr,
		Parser:  odata.NewParser(opts...),
	}
}

// parse accepts either a bare query string or a URL with one.
func (c *Context) parse(raw string) (*odata.QueryOptions, error) {
	c.rawQuery = raw
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "/") {
		return c.Parser.ParseURL(c, raw)
	}
	return c.Parser.ParseQueryString(c, strings.TrimPrefix(raw, "?"))
}

// filterOf returns the raw $filter of a query string or URL, if any.
func filterOf(raw string) string {
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[i+1:]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}
	return values.Get("$filter")
}

// write renders v in the selected output format.
func (c *Context) write(v interface{}) error {
	var (
		data []byte
		err  error
	)
	switch c.Output {
	case "yaml":
		data, err = yaml.Marshal(v)
	default:
		data, err = json.MarshalIndent(v, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	}
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = c.Stdout.Write(data)
	return err
}
