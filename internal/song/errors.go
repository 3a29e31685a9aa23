package song

import "errors"

// ImportCode classifies the result of running an importer.
type ImportCode int

const (
	ImportOkay ImportCode = iota
	ImportUnknown
	ImportBadFile
	ImportTruncation
	ImportOutOfMemory
)

var (
	ErrUnknownFormat = errors.New("unknown module format")
	ErrBadFile       = errors.New("malformed module")
	ErrTruncated     = errors.New("module truncated")
	ErrOutOfMemory   = errors.New("module too large")
)

func (c ImportCode) String() string {
	switch c {
	case ImportOkay:
		return "okay"
	case ImportUnknown:
		return "unknown"
	case ImportBadFile:
		return "badfile"
	case ImportTruncation:
		return "truncation"
	case ImportOutOfMemory:
		return "outofmemory"
	}
	return "invalid"
}

// Err returns the sentinel error for c, or nil for ImportOkay.
func (c ImportCode) Err() error {
	switch c {
	case ImportOkay:
		return nil
	case ImportUnknown:
		return ErrUnknownFormat
	case ImportTruncation:
		return ErrTruncated
	case ImportOutOfMemory:
		return ErrOutOfMemory
	}
	return ErrBadFile
}

// CodeOf maps err back to an import code. Errors that wrap none of the
// sentinels are reported as ImportBadFile.
func CodeOf(err error) ImportCode {
	switch {
	case err == nil:
		return ImportOkay
	case errors.Is(err, ErrUnknownFormat):
		return ImportUnknown
	case errors.Is(err, ErrTruncated):
		return ImportTruncation
	case errors.Is(err, ErrOutOfMemory):
		return ImportOutOfMemory
	}
	return ImportBadFile
}
