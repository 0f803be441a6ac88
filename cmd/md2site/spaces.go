package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alnah/go-md2site/internal/fileutil"
	"github.com/alnah/go-md2site/internal/pipeline"
)

// runSpaces inserts a space between Han characters and adjacent Latin
// letters in a Markdown file.
func runSpaces(args []string, env *Environment) error {
	f, positional, err := parseSpacesFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: spaces requires exactly one markdown file", ErrUsage)
	}

	in := positional[0]
	data, err := os.ReadFile(in) // #nosec G304 -- path is user-provided
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadInput, err)
	}

	out := pipeline.AddHanLatinSpaces(string(data))

	if f.output == "" {
		_, err = io.WriteString(env.Stdout, out)
		return err
	}
	if err := fileutil.WriteFileAtomic(f.output, []byte(out)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
