package pool

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeJSONSnapshot(t *testing.T) {
	snap := Snapshot{Name: "buffers", Policy: PolicyStatic, Size: 4, Acquired: 1, Free: 3}

	data, err := EncodeJSON(snap)
	if err != nil {
		t.Fatalf("EncodeJSON failed: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"name":"buffers"`, `"policy":"static"`, `"size":4`, `"acquired":1`, `"free":3`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
	if strings.HasSuffix(out, "\n") {
		t.Error("expected trailing newline to be trimmed")
	}
}

func TestEncodeJSONDoesNotEscapeHTML(t *testing.T) {
	data, err := EncodeJSON(map[string]string{"endpoint": "/pools?size=<10>"})
	if err != nil {
		t.Fatalf("EncodeJSON failed: %v", err)
	}
	if !strings.Contains(string(data), "<10>") {
		t.Fatalf("expected unescaped HTML characters, got %s", data)
	}
}

func TestWriteJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := WriteJSON(buf, Snapshot{Name: "conns", Policy: PolicyDynamic}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"name":"conns"`) {
		t.Fatalf("unexpected output %s", buf.String())
	}
}
