// Package security defines the decryption collaborator interface. The
// engine never implements ciphers itself; a caller with key material
// plugs in a Handler, and without one encrypted streams are omitted
// from extraction rather than failing the document.
package security

import (
	"context"
	"errors"

	"github.com/pmdunggh/pdftotext-sub000/ir/raw"
)

// ErrDecryptUnavailable is returned when a stream needs decryption and
// no capable handler is installed. The stream's text is omitted; the
// rest of the document still extracts.
var ErrDecryptUnavailable = errors.New("security: decryption unavailable")

// Handler supplies decrypted bytes for protected payloads. The encrypt
// dictionary comes from the document trailer; objNum identifies the
// object whose payload is being decrypted.
type Handler interface {
	DecryptStream(ctx context.Context, encrypt *raw.Dict, objNum int, data []byte) ([]byte, error)
	DecryptString(ctx context.Context, encrypt *raw.Dict, objNum int, data []byte) ([]byte, error)
}

// Noop rejects every decryption request.
type Noop struct{}

func (Noop) DecryptStream(_ context.Context, _ *raw.Dict, _ int, _ []byte) ([]byte, error) {
	return nil, ErrDecryptUnavailable
}

func (Noop) DecryptString(_ context.Context, _ *raw.Dict, _ int, _ []byte) ([]byte, error) {
	return nil, ErrDecryptUnavailable
}
