package fetcher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectTables(t *testing.T, tables <-chan odsNode, errs <-chan error) []odsNode {
	t.Helper()
	var out []odsNode
	for table := range tables {
		out = append(out, table)
	}
	for err := range errs {
		require.NoError(t, err)
	}
	return out
}

func TestStreamTables(t *testing.T) {
	tables, errs := streamTables(context.Background(), strings.NewReader(odsContent))

	got := collectTables(t, tables, errs)
	require.Len(t, got, 2)
	assert.Equal(t, "Cover_sheet", got[0].Name)
	assert.Equal(t, "IMB_01b", got[1].Name)
}

func TestStreamTables_Charset(t *testing.T) {
	input := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>" +
		"<doc><table name=\"C\xf4te d'Ivoire\"/></doc>"

	tables, errs := streamTables(context.Background(), strings.NewReader(input))

	got := collectTables(t, tables, errs)
	require.Len(t, got, 1)
	assert.Equal(t, "Côte d'Ivoire", got[0].Name)
}

func TestStreamTables_UnknownCharset(t *testing.T) {
	input := `<?xml version="1.0" encoding="x-nonsense"?><doc><table name="a"/></doc>`

	tables, errs := streamTables(context.Background(), strings.NewReader(input))
	for range tables {
	}
	err := <-errs
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported charset")
}

func TestStreamTables_ContextCancellation(t *testing.T) {
	var b strings.Builder
	b.WriteString("<doc>")
	for range 1000 {
		b.WriteString(`<table name="t"><table-row/></table>`)
	}
	b.WriteString("</doc>")

	ctx, cancel := context.WithCancel(context.Background())
	tables, errs := streamTables(ctx, strings.NewReader(b.String()))

	<-tables
	cancel()

	done := make(chan struct{})
	go func() {
		for range tables {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancellation")
	}

	err := <-errs
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestStreamTables_Malformed(t *testing.T) {
	tables, errs := streamTables(context.Background(), strings.NewReader("<doc><table>"))
	for range tables {
	}
	err := <-errs
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ods: decode table")
}
