package modfile

import (
	"fmt"

	"github.com/cbegin/modseq-go/internal/sequencer"
	"github.com/cbegin/modseq-go/internal/song"
)

type format struct {
	name      string
	recognize func([]byte) bool
	decode    func([]byte) (*song.Package, error)
}

var formats = []format{
	{"xm", isXM, ImportXM},
	{"s3m", isS3M, ImportS3M},
	{"it", isIT, ImportIT},
}

// Importers returns a decoder for every supported format, in the order a
// sequencer should try them.
func Importers() []sequencer.Importer {
	out := make([]sequencer.Importer, len(formats))
	for i, f := range formats {
		out[i] = sequencer.Importer{Name: f.name, Import: f.decode}
	}
	return out
}

// Register adds every format to seq's importer chain.
func Register(seq *sequencer.Sequencer) error {
	for _, imp := range Importers() {
		if err := seq.AddImporter(imp); err != nil {
			return err
		}
	}
	return nil
}

// Detect names the format of data from its signature, or returns "" when
// no format matches.
func Detect(data []byte) string {
	for _, f := range formats {
		if f.recognize(data) {
			return f.name
		}
	}
	return ""
}

// Import decodes data with the importer whose signature it carries.
func Import(data []byte) (*song.Package, error) {
	for _, f := range formats {
		if f.recognize(data) {
			return f.decode(data)
		}
	}
	return nil, fmt.Errorf("modfile: %w", song.ErrUnknownFormat)
}
