package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"bizdash/internal/core"
	"bizdash/internal/sheets"
)

var (
	_ sheets.InvoiceLedger  = (*Ledger)(nil)
	_ sheets.CategorySource = (*Ledger)(nil)
)

// Row is one ledger entry kept in memory.
type Row struct {
	Number string
	Client string
	Total  string
	File   string
}

// Ledger is an in-process stand-in for the spreadsheet.
type Ledger struct {
	mu   sync.Mutex
	cats []string
	rows []Row
}

func New(cats []string) *Ledger {
	return &Ledger{cats: dedupe(cats)}
}

// NewFromFile seeds category names from base/seed_categories.txt, falling
// back to the built-in expense categories.
func NewFromFile(base string) *Ledger {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		for _, k := range []core.CategoryKey{
			core.CategoryMaterials, core.CategoryLabor, core.CategoryMarketing, core.CategoryEquipment,
			core.CategoryTransportation, core.CategoryUtilities, core.CategoryWedding, core.CategoryOther,
		} {
			cats = append(cats, string(k))
		}
	}
	return New(cats)
}

// AppendInvoice stores the summary row and returns a synthetic reference.
func (l *Ledger) AppendInvoice(_ context.Context, doc core.InvoiceDocument, file string) (string, error) {
	if doc.Invoice.InvoiceNumber == "" {
		return "", fmt.Errorf("invoice has no number")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, Row{
		Number: doc.Invoice.InvoiceNumber,
		Client: doc.Invoice.ClientName,
		Total:  core.FormatMoney(doc.Totals.GrandTotal),
		File:   file,
	})
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

func (l *Ledger) Rows() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Row(nil), l.rows...)
}

func (l *Ledger) ListCategoryNames(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.cats...), nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops blanks and repeats, keeping input order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
