package memory

import "github.com/go-faster/errors"

var errReadOnly = errors.New("memory: write in read-only snapshot")
