package pattern

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadDefaultCatalog(t *testing.T) {
	reg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if len(reg.List()) < 10 {
		t.Fatalf("expected at least 10 patterns, got %d", len(reg.List()))
	}

	p, err := reg.Get("Template Pattern")
	if err != nil {
		t.Fatalf("Get(Template Pattern): %v", err)
	}
	if p.Category != "output_formatting" {
		t.Fatalf("Category = %q, want output_formatting", p.Category)
	}
	if len(p.Slots) != 1 || p.Slots[0] != "topic" {
		t.Fatalf("Slots = %v, want [topic]", p.Slots)
	}
}

func TestListIsCatalogOrder(t *testing.T) {
	reg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	list := reg.List()
	if list[0].Name != "Alternative Approaches" {
		t.Fatalf("first pattern = %q, want Alternative Approaches", list[0].Name)
	}
	last := list[len(list)-1]
	if last.Source != "react_prompt_patterns.csv" {
		t.Fatalf("last pattern source = %q, want react file", last.Source)
	}
}

func TestGetUnknownPattern(t *testing.T) {
	reg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	_, err = reg.Get("No Such Pattern")
	var unknown *UnknownPatternError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownPatternError", err)
	}
	if unknown.Name != "No Such Pattern" {
		t.Fatalf("unknown.Name = %q", unknown.Name)
	}
}

func TestReadCatalogDuplicateName(t *testing.T) {
	csvData := "pattern_name,pattern_family,required_slots,template\n" +
		"A,fam,,\"text\"\n" +
		"A,fam,,\"text\"\n"
	reg := newRegistry()
	err := reg.readCatalog(strings.NewReader(csvData), "dup.csv")
	var catErr *CatalogError
	if !errors.As(err, &catErr) {
		t.Fatalf("err = %v, want CatalogError", err)
	}
	if !strings.Contains(catErr.Reason, "duplicate") {
		t.Fatalf("Reason = %q, want duplicate", catErr.Reason)
	}
}

func TestReadCatalogMissingTemplate(t *testing.T) {
	csvData := "pattern_name,pattern_family,required_slots,template\n" +
		"A,fam,slot,\n"
	reg := newRegistry()
	err := reg.readCatalog(strings.NewReader(csvData), "bad.csv")
	var catErr *CatalogError
	if !errors.As(err, &catErr) {
		t.Fatalf("err = %v, want CatalogError", err)
	}
}

func TestReadCatalogMissingColumn(t *testing.T) {
	csvData := "pattern_name,template\nA,text\n"
	reg := newRegistry()
	err := reg.readCatalog(strings.NewReader(csvData), "cols.csv")
	var catErr *CatalogError
	if !errors.As(err, &catErr) {
		t.Fatalf("err = %v, want CatalogError", err)
	}
}
