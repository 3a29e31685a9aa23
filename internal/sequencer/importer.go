package sequencer

import (
	"errors"
	"fmt"

	"github.com/cbegin/modseq-go/internal/debug"
	"github.com/cbegin/modseq-go/internal/song"
)

// MaxImporters bounds the importer chain.
const MaxImporters = 16

var (
	ErrNoImporters      = errors.New("sequencer: no importers registered")
	ErrTooManyImporters = errors.New("sequencer: importer chain is full")
)

// Importer recognizes and decodes one module format. It returns an error
// wrapping song.ErrUnknownFormat when data is not in its format.
type Importer struct {
	Name   string
	Import func(data []byte) (*song.Package, error)
}

func (s *Sequencer) AddImporter(imp Importer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if imp.Import == nil {
		return fmt.Errorf("sequencer: importer %q has no decoder", imp.Name)
	}
	if len(s.importers) >= MaxImporters {
		return ErrTooManyImporters
	}
	s.importers = append(s.importers, imp)
	return nil
}

// Importers returns the registered chain in order.
func (s *Sequencer) Importers() []Importer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Importer(nil), s.importers...)
}

// ImportSong runs data through the importers in registration order. The
// first importer that recognizes the data decides the result.
func (s *Sequencer) ImportSong(data []byte) (*song.Package, error) {
	chain := s.Importers()
	if len(chain) == 0 {
		return nil, ErrNoImporters
	}
	var err error
	for _, imp := range chain {
		var pkg *song.Package
		pkg, err = imp.Import(data)
		if err == nil {
			debug.Log("import", "%s: %q", imp.Name, pkg.Description.Name)
			return pkg, nil
		}
		if !errors.Is(err, song.ErrUnknownFormat) {
			debug.Log("import", "%s: %v", imp.Name, err)
			return nil, err
		}
	}
	return nil, err
}
