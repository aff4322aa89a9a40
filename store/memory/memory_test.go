package memory_test

import (
	"testing"

	"github.com/innopark/rma-engine/rma"
	"github.com/innopark/rma-engine/store/memory"
	"github.com/innopark/rma-engine/store/storetest"
)

func TestMemory_Contract(t *testing.T) {
	storetest.Run(t, func(*testing.T) rma.Store { return memory.New() })
}
