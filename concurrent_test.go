package exi_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/jacoelho/exi"
)

func TestSchemaSessionsConcurrent(t *testing.T) {
	schema, err := exi.Load(ordersFS(), "orders.xsd", "common.xsd")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want, err := schema.EncodeXML(strings.NewReader(ordersXML))
	if err != nil {
		t.Fatalf("EncodeXML() error = %v", err)
	}

	const goroutines = 8
	const iterations = 25

	errCh := make(chan error, goroutines*iterations)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				data, err := schema.EncodeXML(strings.NewReader(ordersXML))
				if err != nil {
					errCh <- err
					return
				}
				if !bytes.Equal(data, want) {
					t.Errorf("concurrent encoding produced a different stream")
					return
				}
				if _, err := schema.DecodeEvents(data); err != nil {
					errCh <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Fatalf("concurrent session error: %v", err)
	}
}

func TestDumpGrammars(t *testing.T) {
	schema, err := exi.Load(ordersFS(), "orders.xsd", "common.xsd")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var out bytes.Buffer
	if err := schema.DumpGrammars(&out); err != nil {
		t.Fatalf("DumpGrammars() error = %v", err)
	}
	if !strings.Contains(out.String(), "Order") {
		t.Fatalf("DumpGrammars() output does not mention type Order:\n%s", out.String())
	}
}
