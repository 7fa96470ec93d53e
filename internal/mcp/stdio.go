package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

const maxLineBytes = 4 << 20

// RunStdio serves newline-delimited JSON-RPC requests from in until EOF or
// until ctx is cancelled between requests.
func RunStdio(ctx context.Context, srv *Server, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		resp := Response{JSONRPC: "2.0"}
		if err := json.Unmarshal(line, &req); err != nil {
			resp.Error = &ResponseError{Code: -32700, Message: "parse error: " + err.Error()}
		} else {
			resp.ID = req.ID
			result, err := srv.dispatch(ctx, req)
			if err != nil {
				resp.Error = &ResponseError{Code: -32000, Message: err.Error()}
			} else {
				resp.Result = result
			}
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		if _, err := writer.Write(append(data, '\n')); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdio scan error: %w", err)
	}
	return nil
}
