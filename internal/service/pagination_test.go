package service

import "testing"

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, perPage         int
		wantPage, wantPerPage int
	}{
		{0, 0, 1, 10},
		{-3, 5, 1, 5},
		{2, 500, 2, 100},
		{4, 25, 4, 25},
	}
	for _, tt := range tests {
		page, perPage := normalizePage(tt.page, tt.perPage)
		if page != tt.wantPage || perPage != tt.wantPerPage {
			t.Errorf("normalizePage(%d, %d) = %d, %d; want %d, %d",
				tt.page, tt.perPage, page, perPage, tt.wantPage, tt.wantPerPage)
		}
	}
}

func TestPaginate(t *testing.T) {
	p := paginate(2, 10, 21)
	if p.TotalPages != 3 || p.TotalItems != 21 || p.Page != 2 || p.PerPage != 10 {
		t.Errorf("paginate = %+v", p)
	}
	if p := paginate(1, 10, 0); p.TotalPages != 0 {
		t.Errorf("empty result has %d pages", p.TotalPages)
	}
}
