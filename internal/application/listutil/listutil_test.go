package listutil

import (
	"net/url"
	"slices"
	"testing"
)

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		raw         string
		wantPage    int
		wantPerPage int
	}{
		{"", 1, DefaultPerPage},
		{"page=3&per_page=50", 3, 50},
		{"page=-1&per_page=0", 1, DefaultPerPage},
		{"per_page=7", 1, 7},
		{"per_page=5000", 1, MaxPerPage},
		{"page=two&per_page=ten", 1, DefaultPerPage},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.raw)
			p := ParsePageParams(q)
			if p.Page != tt.wantPage || p.PerPage != tt.wantPerPage {
				t.Errorf("got %+v, want page %d per_page %d", p, tt.wantPage, tt.wantPerPage)
			}
		})
	}
}

func TestParseSortParams(t *testing.T) {
	cols := []string{"name", "joined"}
	tests := []struct {
		raw      string
		wantSort string
		wantDir  string
	}{
		{"sort=name", "name", "asc"},
		{"sort=-joined", "joined", "desc"},
		{"sort=name&dir=desc", "name", "desc"},
		{"sort=-name&dir=asc", "name", "asc"},
		{"sort=password", "", "asc"},
		{"sort=name&dir=DROP", "name", "asc"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.raw)
			s := ParseSortParams(q, cols)
			if s.Sort != tt.wantSort || s.Dir != tt.wantDir {
				t.Errorf("got %+v, want %s %s", s, tt.wantSort, tt.wantDir)
			}
		})
	}
}

func TestParseFilterParams(t *testing.T) {
	q := url.Values{"q": {"  novak "}, "status": {"archived"}, "club": {" "}, "role": {"coach"}}
	f := ParseFilterParams(q, []string{"club", "status"})
	if f.Search != "novak" {
		t.Errorf("search = %q", f.Search)
	}
	if f.Filters["status"] != "archived" {
		t.Errorf("status = %q", f.Filters["status"])
	}
	if _, ok := f.Filters["club"]; ok {
		t.Error("blank club filter kept")
	}
	if _, ok := f.Filters["role"]; ok {
		t.Error("filter outside the allowed keys kept")
	}
}

func TestSplitValues(t *testing.T) {
	q := url.Values{"status": {"pending, approved,", "partially_approved"}}
	got := SplitValues(q, "status")
	want := []string{"pending", "approved", "partially_approved"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := SplitValues(q, "club"); got != nil {
		t.Fatalf("missing key: got %v", got)
	}
}

func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		perPage    int
		total      int
		wantPage   int
		wantPages  int
		wantNext   int
		wantOffset int
	}{
		{"first page", 1, 25, 60, 1, 3, 2, 0},
		{"last page", 3, 25, 60, 3, 3, 0, 50},
		{"beyond the end", 9, 25, 60, 3, 3, 0, 50},
		{"empty list", 1, 25, 0, 1, 1, 0, 0},
		{"exact fit", 1, 10, 10, 1, 1, 0, 0},
		{"bad per page", 2, 0, 30, 2, 2, 0, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pi := NewPageInfo(tt.page, tt.perPage, tt.total)
			if pi.Page != tt.wantPage || pi.TotalPages != tt.wantPages || pi.NextPage != tt.wantNext {
				t.Errorf("got %+v", pi)
			}
			if pi.Offset() != tt.wantOffset {
				t.Errorf("offset = %d, want %d", pi.Offset(), tt.wantOffset)
			}
		})
	}
}
