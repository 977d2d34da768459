package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTablesRewritesRows(t *testing.T) {
	in := "Faculty details\n\n" +
		"| Designation | Count |\n" +
		"|---|---|\n" +
		"| Professor | 12 |\n" +
		"| Assistant Professor | 30 |\n" +
		"\nEnd of section"

	got := NormalizeTables(in)

	assert.Contains(t, got, "Faculty details")
	assert.Contains(t, got, "Designation: Professor; Count: 12")
	assert.Contains(t, got, "Designation: Assistant Professor; Count: 30")
	assert.Contains(t, got, "End of section")
	assert.NotContains(t, got, "|---|")
}

func TestNormalizeTablesWithoutPipesIsUnchanged(t *testing.T) {
	in := "Total Faculty: 120\nStudents: 1500"
	assert.Equal(t, in, NormalizeTables(in))
}

func TestNormalizeTablesSkipsEmptyCells(t *testing.T) {
	in := "| Item | Value |\n| --- | --- |\n| Fire NOC |  |\n"
	assert.Contains(t, NormalizeTables(in), "Item: Fire NOC")
	assert.NotContains(t, NormalizeTables(in), "Value:")
}
