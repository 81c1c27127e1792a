package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromValuesPadsRows(t *testing.T) {
	tbl := FromValues("Links", [][]string{
		{"Title", "URL", "Description"},
		{"Go", "https://go.dev"},
		{},
	})
	assert.Equal(t, []string{"Title", "URL", "Description"}, tbl.Header)
	assert.Equal(t, [][]string{{"Go", "https://go.dev", ""}, {"", "", ""}}, tbl.Rows)
	assert.Len(t, tbl.Values(), 3)
}

func TestColumnIgnoresCase(t *testing.T) {
	tbl := Table{Header: []string{" title ", "Url", "CATEGORY"}}
	assert.Equal(t, 0, tbl.Column("Title"))
	assert.Equal(t, 1, tbl.Column("URL"))
	assert.Equal(t, 2, tbl.Column("category"))
	assert.Equal(t, -1, tbl.Column("Description"))
}

func TestCell(t *testing.T) {
	row := []string{" a ", "b"}
	assert.Equal(t, "a", Cell(row, 0))
	assert.Equal(t, "", Cell(row, 5))
	assert.Equal(t, "", Cell(row, -1))
}

func TestFromValuesEmpty(t *testing.T) {
	tbl := FromValues("Empty", nil)
	assert.Empty(t, tbl.Header)
	assert.Empty(t, tbl.Values())
}
