package memory

import (
	"testing"

	"github.com/jasperbot/jasper/storage"
	"github.com/jasperbot/jasper/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(*testing.T) storage.Store { return New() })
}
