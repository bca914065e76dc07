package importer_test

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/absences/core/student"
	"github.com/trezcool/absences/services/importer"
	"github.com/trezcool/absences/tests"
)

const rosterCSV = `Prénom;Nom;Email Parent;Classe
Emma;Martin; Parent.Martin@Email.com ;CP-A
Louis;;parent.dubois@email.com;CP-A
;;;
Chloé;Bernard;parent.bernard@email;CE1-B
Jules;Petit;parent.petit@email.com;CE1-B
`

func TestReadRows(t *testing.T) {
	rows, err := importer.ReadRows(strings.NewReader(rosterCSV), "eleves.csv")
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"Prénom", "Nom", "Email Parent", "Classe"}, rows[0])

	rows, err = importer.ReadRows(strings.NewReader("first_name,last_name,parent_email,class\nEmma,Martin,a@b.co,CP-A\n"), "eleves.CSV")
	require.NoError(t, err)
	assert.Equal(t, []string{"Emma", "Martin", "a@b.co", "CP-A"}, rows[1])

	_, err = importer.ReadRows(strings.NewReader("..."), "eleves.ods")
	assert.ErrorIs(t, err, importer.ErrUnsupportedFormat)

	_, err = importer.ReadRows(strings.NewReader(""), "eleves.csv")
	assert.ErrorIs(t, err, importer.ErrEmptySheet)
}

func TestParse(t *testing.T) {
	rows, err := importer.ReadRows(strings.NewReader(rosterCSV), "eleves.csv")
	require.NoError(t, err)

	res, err := importer.Parse(rows)
	require.NoError(t, err)
	assert.Equal(t, []student.NewStudent{
		{FirstName: "Emma", LastName: "Martin", ParentEmail: "parent.martin@email.com", Class: "CP-A"},
		{FirstName: "Jules", LastName: "Petit", ParentEmail: "parent.petit@email.com", Class: "CE1-B"},
	}, res.Students)
	assert.Equal(t, []int{2, 6}, res.Rows)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Reason, "missing fields")
	assert.Equal(t, 5, res.Errors[1].Row)
	assert.Equal(t, "row 5: invalid email (parent.bernard@email)", res.Errors[1].Error())
}

func TestParse_MissingColumns(t *testing.T) {
	_, err := importer.Parse([][]string{{"Prénom", "Nom", "Email"}})
	require.ErrorIs(t, err, importer.ErrMissingColumns)
	assert.Contains(t, err.Error(), "Email Parent, Classe")

	_, err = importer.Parse(nil)
	assert.ErrorIs(t, err, importer.ErrEmptySheet)
}

func TestWriteTemplate(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, importer.WriteTemplate(buf))

	rows, err := importer.ReadRows(buf, importer.TemplateFilename)
	require.NoError(t, err)
	res, err := importer.Parse(rows)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Students, 3)
	assert.Equal(t, "Chloé", res.Students[2].FirstName)
	assert.Equal(t, "CE1-B", res.Students[2].Class)
}

// importing the same file twice adds its students once
func TestImport_RoundTrip(t *testing.T) {
	trk, _, _ := testutil.NewTracker(t)
	ctx := context.Background()

	var data bytes.Buffer
	require.NoError(t, importer.WriteTemplate(&data))
	xlsx := data.Bytes()

	rep, err := importer.Import(ctx, trk, bytes.NewReader(xlsx), "eleves.xlsx")
	require.NoError(t, err)
	assert.Len(t, rep.Added, 3)
	assert.Empty(t, rep.Skipped)
	assert.Empty(t, rep.Errors)

	rep, err = importer.Import(ctx, trk, bytes.NewReader(xlsx), "eleves.xlsx")
	require.NoError(t, err)
	assert.Empty(t, rep.Added)
	assert.Len(t, rep.Skipped, 3)
	assert.Empty(t, rep.Warnings, "same contacts are skipped, not warned about")

	assert.Len(t, slices.Collect(trk.Students()), 3)
}

func TestImport_WithErrors(t *testing.T) {
	trk, _, _ := testutil.NewTracker(t)

	rep, err := importer.Import(context.Background(), trk, strings.NewReader(rosterCSV), "eleves.csv")
	require.NoError(t, err)
	assert.Len(t, rep.Added, 2)
	assert.Len(t, rep.Errors, 2)
}

func TestSimilarNames(t *testing.T) {
	trk, _, _ := testutil.NewTracker(t)
	emma := testutil.CreateStudent(t, trk, "Emma", "Martin", "parent.martin@email.com", "CP-A")
	testutil.CreateStudent(t, trk, "Louis", "Dubois", "parent.dubois@email.com", "CP-A")

	parsed := importer.Result{
		Students: []student.NewStudent{
			{FirstName: "Ema", LastName: "Martin", ParentEmail: "other.martin@email.com", Class: "CP-A"},
			{FirstName: "Emma", LastName: "Martin", ParentEmail: "parent.martin@email.com", Class: "CP-A"},
			{FirstName: "Zoé", LastName: "Roux", ParentEmail: "parent.roux@email.com", Class: "CP-A"},
		},
		Rows: []int{2, 3, 4},
	}
	warnings := importer.SimilarNames(parsed, trk.Students())
	require.Len(t, warnings, 1)
	assert.Equal(t, 2, warnings[0].Row)
	assert.Equal(t, "Ema Martin", warnings[0].Name)
	assert.Equal(t, emma.ID, warnings[0].Existing.ID)
	assert.GreaterOrEqual(t, warnings[0].Ratio, .9)
}
