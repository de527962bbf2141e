package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nhttp/gen-automata/internal/stream"
	"github.com/spf13/cobra"
)

type traceEvent struct {
	Action string `json:"action"`
	Value  string `json:"value,omitempty"`
	Offset int    `json:"offset"`
	Chunk  int    `json:"chunk"`
}

type traceResult struct {
	Consumed int    `json:"consumed"`
	Done     bool   `json:"done"`
	State    int    `json:"state"`
	Error    string `json:"error,omitempty"`
}

func newTraceCmd() *cobra.Command {
	var (
		configPath string
		inputPath  string
		chunkSize  int
		crlf       bool
	)

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Run a sample head through the compiled automaton and print events as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return errors.New("input path is required")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			c, err := compileGrammar(cfg)
			if err != nil {
				return err
			}

			input, err := readInput(cmd, inputPath)
			if err != nil {
				return err
			}
			if crlf {
				input = toCRLF(input)
			}

			return trace(cmd.OutOrStdout(), stream.NewParser(c.compiled.Table, cfg.Limits.MaxCapture), input, chunkSize)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to grammar file (default: built-in nhttp grammar)")
	cmd.Flags().StringVar(&inputPath, "in", "", "Sample request or response head (- for stdin)")
	cmd.Flags().IntVar(&chunkSize, "chunk", 0, "Feed the input in chunks of this many bytes (0 feeds it whole)")
	cmd.Flags().BoolVar(&crlf, "crlf", false, "Convert bare LF line endings to CRLF before parsing")

	return cmd
}

func trace(w io.Writer, p *stream.Parser, input []byte, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = len(input)
	}
	enc := json.NewEncoder(w)

	var result traceResult
	for chunk := 0; len(input) > 0 && !p.Done(); chunk++ {
		size := min(chunkSize, len(input))
		events, n, err := p.Feed(input[:size])
		for _, e := range events {
			if encErr := enc.Encode(traceEvent{Action: e.Name, Value: e.Value, Offset: e.Offset, Chunk: chunk}); encErr != nil {
				return encErr
			}
		}
		result.Consumed += n
		if err != nil {
			result.Error = err.Error()
			break
		}
		input = input[n:]
	}
	result.Done = p.Done()
	result.State = p.State()
	if err := enc.Encode(result); err != nil {
		return err
	}
	if result.Error != "" {
		return fmt.Errorf("trace: %s", result.Error)
	}
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// toCRLF rewrites bare LF to CRLF. Existing CRLF pairs are kept.
func toCRLF(data []byte) []byte {
	var b bytes.Buffer
	b.Grow(len(data) + bytes.Count(data, []byte("\n")))
	for i, c := range data {
		if c == '\n' && (i == 0 || data[i-1] != '\r') {
			b.WriteByte('\r')
		}
		b.WriteByte(c)
	}
	return b.Bytes()
}
