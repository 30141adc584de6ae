// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gogama/httpexec/request"
	"github.com/spf13/cobra"
)

type requestOptions struct {
	headers     []string
	include     bool
	fail        bool
	data        string
	contentType string
}

func newRequestCmd(root *rootOptions, name, method string) *cobra.Command {
	opts := &requestOptions{}
	cmd := &cobra.Command{
		Use:   name + " URL",
		Short: "Issue a " + method + " request and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, root, opts, method, args[0])
		},
	}
	f := cmd.Flags()
	f.StringArrayVarP(&opts.headers, "header", "H", nil, `request header as "Name: value" (repeatable)`)
	f.BoolVarP(&opts.include, "include", "i", false, "print the status line and response headers")
	f.BoolVarP(&opts.fail, "fail", "f", false, "exit with an error on HTTP status 400 or above")
	if method == http.MethodPost {
		f.StringVarP(&opts.data, "data", "d", "", "request body, or @file to read it from a file")
		f.StringVar(&opts.contentType, "content-type", "application/x-www-form-urlencoded", "request body content type")
	}
	return cmd
}

func runRequest(cmd *cobra.Command, root *rootOptions, opts *requestOptions, method, rawURL string) error {
	req, err := buildRequest(cmd.Context(), opts, method, rawURL)
	if err != nil {
		return err
	}

	cl, err := root.client(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = cl.Close(context.Background()) }()

	e, err := cl.Do(req)
	if err != nil {
		return err
	}
	resp := e.Response
	defer func() { _ = resp.Body.Close() }()

	out := bufio.NewWriter(cmd.OutOrStdout())
	if opts.include {
		fmt.Fprintf(out, "HTTP/%d.%d %s\r\n", resp.ProtoMajor, resp.ProtoMinor, resp.Status)
		if err = resp.Header.Write(out); err != nil {
			return err
		}
		_, _ = io.WriteString(out, "\r\n")
	}
	if _, err = io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if err = out.Flush(); err != nil {
		return err
	}
	if opts.fail && resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

func buildRequest(ctx context.Context, opts *requestOptions, method, rawURL string) (*request.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var body any
	if opts.data != "" {
		b, err := readData(opts.data)
		if err != nil {
			return nil, err
		}
		body = request.NewBytesEntity(b, opts.contentType)
	}
	req, err := request.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	for _, h := range opts.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q: want \"Name: value\"", h)
		}
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return req, nil
}

func readData(data string) ([]byte, error) {
	if path, ok := strings.CutPrefix(data, "@"); ok {
		return os.ReadFile(path)
	}
	return []byte(data), nil
}
