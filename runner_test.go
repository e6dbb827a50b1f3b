package tablekit_test

import (
	"encoding/csv"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/tablekit"
	"github.com/tablekit/tablekit/internal/errors"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readCSV(t *testing.T, path string) ([]string, [][]string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	return records[0], records[1:]
}

// column extracts one column of the parsed CSV by header name.
func column(t *testing.T, header []string, rows [][]string, name string) []string {
	t.Helper()
	idx := -1
	for i, h := range header {
		if h == name {
			idx = i
		}
	}
	require.NotEqual(t, -1, idx, "column %s not in %v", name, header)

	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row[idx]
	}
	return out
}

func requireNoFile(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "expected no output file at %s", path)
}

func titanic(t *testing.T, dir string) string {
	return writeCSV(t, dir, "train.csv",
		"Name,Age,Sex,Survived\n"+
			"Braund,22,male,0\n"+
			"Cumings,38,female,1\n"+
			"Heikkinen,26,female,1\n"+
			"Futrelle,35,female,1\n"+
			"Allen,35,male,0\n")
}

func TestColumnNames(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)

	r := tablekit.NewRunner()
	res, err := r.ColumnNames(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Age", "Sex", "Survived"}, res.ColumnNames)
	assert.Equal(t, 5, res.Rows)
	assert.Empty(t, res.OutputPath)
}

func TestSelectColumns(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "slim.csv")

	r := tablekit.NewRunner()
	res, err := r.SelectColumns(src, out, []string{"Name", "Age", "Sex"})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Columns)
	assert.Equal(t, 5, res.Rows)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"Name", "Age", "Sex"}, header)
	assert.Len(t, rows, 5)
	assert.NotContains(t, header, "Survived")
}

func TestSelectColumnsMissingEnumeratesAll(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.SelectColumns(src, out, []string{"Name", "Foo", "Bar"})
	require.Error(t, err)

	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindColumnNotFound}))
	assert.Contains(t, err.Error(), "Foo")
	assert.Contains(t, err.Error(), "Bar")
	assert.Contains(t, err.Error(), "Name, Age, Sex, Survived")
	requireNoFile(t, out)
}

func TestDropColumns(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "dropped.csv")

	r := tablekit.NewRunner()
	_, err := r.DropColumns(src, out, []string{"Survived"})
	require.NoError(t, err)

	header, _ := readCSV(t, out)
	assert.Equal(t, []string{"Name", "Age", "Sex"}, header)
}

func TestRenameColumns(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "renamed.csv")

	r := tablekit.NewRunner()
	_, err := r.RenameColumns(src, out, map[string]string{"Sex": "Gender"})
	require.NoError(t, err)

	header, _ := readCSV(t, out)
	assert.Equal(t, []string{"Name", "Age", "Gender", "Survived"}, header)

	_, err = r.RenameColumns(src, out, map[string]string{"Nope": "X"})
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindColumnNotFound}))
}

func TestCreateColumnArithmetic(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "prices.csv", "Price,Tax\n100,8\n200,16\n")
	out := filepath.Join(dir, "total.csv")

	r := tablekit.NewRunner()
	res, err := r.CreateColumn(src, out, "Total", "Price + Tax")
	require.NoError(t, err)
	assert.Equal(t, []string{"Price", "Tax", "Total"}, res.ColumnNames)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"108", "216"}, column(t, header, rows, "Total"))
}

func TestCreateColumnStringConcat(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "tagged.csv")

	r := tablekit.NewRunner()
	_, err := r.CreateColumn(src, out, "Tag", `Name + "_passenger"`)
	require.NoError(t, err)

	header, rows := readCSV(t, out)
	assert.Equal(t, "Braund_passenger", column(t, header, rows, "Tag")[0])
}

func TestCreateColumnBadExpression(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()

	_, err := r.CreateColumn(src, out, "X", "Age + ")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindExpression}))
	requireNoFile(t, out)

	_, err = r.CreateColumn(src, out, "X", "Nonexistent * 2")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindExpression}))
	requireNoFile(t, out)
}

func TestNormalizeColumnMinMaxBounds(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "vals.csv", "v\n10\n20\n30\n")
	out := filepath.Join(dir, "norm.csv")

	r := tablekit.NewRunner()
	_, err := r.NormalizeColumn(src, out, "v", "min_max")
	require.NoError(t, err)

	header, rows := readCSV(t, out)
	// Original preserved, new suffixed column holds [0,1] values.
	assert.Equal(t, []string{"10", "20", "30"}, column(t, header, rows, "v"))
	assert.Equal(t, []string{"0", "0.5", "1"}, column(t, header, rows, "v_normalized"))
}

func TestNormalizeColumnDegenerate(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "const.csv", "v\n7\n7\n7\n")

	r := tablekit.NewRunner()
	for _, method := range []string{"min_max", "z_score"} {
		out := filepath.Join(dir, method+".csv")
		_, err := r.NormalizeColumn(src, out, "v", method)
		require.NoError(t, err)

		header, rows := readCSV(t, out)
		assert.Equal(t, []string{"0", "0", "0"}, column(t, header, rows, "v_normalized"), method)
	}
}

func TestNormalizeColumnInvalidMethod(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.NormalizeColumn(src, out, "Age", "rank")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidArgument}))
	assert.Contains(t, err.Error(), "min_max, z_score")
	requireNoFile(t, out)
}

func TestStandardScaleRejectsText(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.StandardScale(src, out, []string{"Name", "Age"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindTypeMismatch}))
	assert.Contains(t, err.Error(), "Name")
	requireNoFile(t, out)
}

func TestMinMaxScaleCustomRange(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "vals.csv", "v\n0\n5\n10\n")
	out := filepath.Join(dir, "scaled.csv")

	r := tablekit.NewRunner()
	_, err := r.MinMaxScale(src, out, []string{"v"}, 0, 10)
	require.NoError(t, err)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"0", "5", "10"}, column(t, header, rows, "v_scaled"))
}

func TestRobustScale(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "vals.csv", "v\n1\n2\n3\n4\n5\n")
	out := filepath.Join(dir, "scaled.csv")

	r := tablekit.NewRunner()
	_, err := r.RobustScale(src, out, []string{"v"})
	require.NoError(t, err)

	// median 3, IQR 2: (x - 3) / 2.
	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"-1", "-0.5", "0", "0.5", "1"},
		column(t, header, rows, "v_robust_scaled"))
}

func TestOneHotEncode(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "onehot.csv")

	r := tablekit.NewRunner()
	_, err := r.OneHotEncode(src, out, []string{"Sex"})
	require.NoError(t, err)

	header, rows := readCSV(t, out)
	assert.NotContains(t, header, "Sex")
	assert.Equal(t, []string{"0", "1", "1", "1", "0"}, column(t, header, rows, "Sex_female"))
	assert.Equal(t, []string{"1", "0", "0", "0", "1"}, column(t, header, rows, "Sex_male"))
}

func TestLabelEncodeSortedCodes(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "cats.csv", "size\nmedium\nsmall\nlarge\nsmall\n")
	out := filepath.Join(dir, "encoded.csv")

	r := tablekit.NewRunner()
	_, err := r.LabelEncode(src, out, []string{"size"})
	require.NoError(t, err)

	// Sorted distinct: large=0, medium=1, small=2.
	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"1", "2", "0", "2"}, column(t, header, rows, "size_encoded"))
	// Original retained.
	assert.Equal(t, []string{"medium", "small", "large", "small"}, column(t, header, rows, "size"))
}

func TestOrdinalEncodeExplicitOrder(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "cats.csv", "size\nmedium\nsmall\nlarge\n")
	out := filepath.Join(dir, "encoded.csv")

	r := tablekit.NewRunner()
	_, err := r.OrdinalEncode(src, out, []string{"size"},
		map[string][]string{"size": {"small", "medium", "large"}})
	require.NoError(t, err)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"1", "0", "2"}, column(t, header, rows, "size_ordinal"))
}

func TestOrdinalEncodeUnknownCategory(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "cats.csv", "size\nmedium\nhuge\n")
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.OrdinalEncode(src, out, []string{"size"},
		map[string][]string{"size": {"small", "medium", "large"}})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidArgument}))
	assert.Contains(t, err.Error(), "huge")
	requireNoFile(t, out)
}

func TestTargetEncodeFullTableMeans(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "data.csv", "Sex,Survived\nmale,0\nfemale,1\nfemale,1\nmale,1\n")
	out := filepath.Join(dir, "encoded.csv")

	r := tablekit.NewRunner()
	_, err := r.TargetEncode(src, out, "Sex", "Survived")
	require.NoError(t, err)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"0.5", "1", "1", "0.5"},
		column(t, header, rows, "Sex_target_encoded"))
}

func TestTargetEncodeRequiresNumericTarget(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.TargetEncode(src, out, "Sex", "Name")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindTypeMismatch}))
	requireNoFile(t, out)
}

func TestFrequencyEncode(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "freq.csv")

	r := tablekit.NewRunner()
	_, err := r.FrequencyEncode(src, out, []string{"Sex"})
	require.NoError(t, err)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"2", "3", "3", "3", "2"},
		column(t, header, rows, "Sex_freq_encoded"))
}

func TestBinaryEncode(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "cats.csv", "c\na\nb\nc\n")
	out := filepath.Join(dir, "bin.csv")

	r := tablekit.NewRunner()
	_, err := r.BinaryEncode(src, out, []string{"c"})
	require.NoError(t, err)

	// Codes a=1, b=2, c=3 over two digit columns, most significant first.
	header, rows := readCSV(t, out)
	assert.NotContains(t, header, "c")
	assert.Equal(t, []string{"0", "1", "1"}, column(t, header, rows, "c_0"))
	assert.Equal(t, []string{"1", "0", "1"}, column(t, header, rows, "c_1"))
}

func TestHashEncode(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "cats.csv", "c\nalpha\nbeta\nalpha\n")
	out := filepath.Join(dir, "hash.csv")

	r := tablekit.NewRunner()
	res, err := r.HashEncode(src, out, []string{"c"}, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Columns)

	header, rows := readCSV(t, out)
	assert.NotContains(t, header, "c")

	// Every row lands in exactly one bucket; identical values share it.
	for _, row := range rows {
		ones := 0
		for _, cell := range row {
			if cell == "1" {
				ones++
			}
		}
		assert.Equal(t, 1, ones)
	}
	assert.Equal(t, rows[0], rows[2])
}

func TestFilterRowsGreaterThan(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "adults.csv")

	r := tablekit.NewRunner()
	res, err := r.FilterRows(src, out, "Age", "greater_than", "30")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 2, res.RemovedRows)

	header, rows := readCSV(t, out)
	for _, age := range column(t, header, rows, "Age") {
		assert.Contains(t, []string{"35", "38"}, age)
	}
}

func TestFilterRowsContainsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "found.csv")

	r := tablekit.NewRunner()
	res, err := r.FilterRows(src, out, "Name", "contains", "BRAUND")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)
}

func TestFilterRowsNotEqualsKeepsMissing(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "data.csv", "city\noslo\nNA\nlima\n")
	out := filepath.Join(dir, "filtered.csv")

	r := tablekit.NewRunner()
	res, err := r.FilterRows(src, out, "city", "not_equals", "oslo")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
}

func TestFilterRowsEmptyResultIsValid(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "empty.csv")

	r := tablekit.NewRunner()
	res, err := r.FilterRows(src, out, "Age", "greater_than", "1000")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rows)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"Name", "Age", "Sex", "Survived"}, header)
	assert.Empty(t, rows)
}

func TestFilterRowsBadThreshold(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.FilterRows(src, out, "Age", "less_than", "abc")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindTypeMismatch}))
	requireNoFile(t, out)
}

func TestFilterRowsInvalidCondition(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.FilterRows(src, out, "Age", "matches", "3")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidArgument}))
	assert.Contains(t, err.Error(), "greater_than")
	requireNoFile(t, out)
}

func TestImputeMissingMean(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "data.csv", "v\n10\nNA\n20\n")
	out := filepath.Join(dir, "filled.csv")

	r := tablekit.NewRunner()
	_, err := r.ImputeMissing(src, out, []string{"v"}, "mean", 0)
	require.NoError(t, err)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"10", "15", "20"}, column(t, header, rows, "v"))
}

func TestImputeMissingDefaultsToAllNumeric(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "data.csv", "name,a,b\nx,1,NA\ny,NA,4\nz,3,6\n")
	out := filepath.Join(dir, "filled.csv")

	r := tablekit.NewRunner()
	_, err := r.ImputeMissing(src, out, nil, "median", 0)
	require.NoError(t, err)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"1", "2", "3"}, column(t, header, rows, "a"))
	assert.Equal(t, []string{"5", "4", "6"}, column(t, header, rows, "b"))
	// Text column untouched.
	assert.Equal(t, []string{"x", "y", "z"}, column(t, header, rows, "name"))
}

func TestImputeMissingConstant(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "data.csv", "v\n1\nNA\n")
	out := filepath.Join(dir, "filled.csv")

	r := tablekit.NewRunner()
	_, err := r.ImputeMissing(src, out, []string{"v"}, "constant", -1)
	require.NoError(t, err)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"1", "-1"}, column(t, header, rows, "v"))
}

func TestImputeMissingInvalidStrategy(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.ImputeMissing(src, out, nil, "interpolate", 0)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidArgument}))
	requireNoFile(t, out)
}

func TestHandleOutliersIQR(t *testing.T) {
	dir := t.TempDir()
	// Q1=7.9, Q3=31.0, IQR=23.1: fences are -26.75 and 65.65.
	src := writeCSV(t, dir, "fares.csv", "Fare\n5\n7.9\n14\n31\n100\n")
	out := filepath.Join(dir, "clean.csv")

	r := tablekit.NewRunner()
	res, err := r.HandleOutliers(src, out, []string{"Fare"}, "iqr")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RemovedRows)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"5", "7.9", "14", "31"}, column(t, header, rows, "Fare"))
}

func TestHandleOutliersInvalidMethod(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.HandleOutliers(src, out, []string{"Age"}, "clip")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidArgument}))
	requireNoFile(t, out)
}

func TestCombineFilesCommonColumns(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "x,y,z\n1,p,0.1\n2,q,0.2\n")
	b := writeCSV(t, dir, "b.csv", "x,y\n3,r\n")
	out := filepath.Join(dir, "combined.csv")

	r := tablekit.NewRunner()
	res, err := r.CombineFiles([]string{a, b}, out, "vertical", true)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, res.ColumnNames)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, []string{"z"}, res.DroppedColumns[a])

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"x", "y"}, header)
	assert.Len(t, rows, 3)
}

func TestCombineFilesHorizontal(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "x\n1\n2\n")
	b := writeCSV(t, dir, "b.csv", "y\np\n")
	out := filepath.Join(dir, "wide.csv")

	r := tablekit.NewRunner()
	res, err := r.CombineFiles([]string{a, b}, out, "horizontal", false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PaddedRows)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"x", "y"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[1][1])
}

func TestCombineFilesNeedsTwo(t *testing.T) {
	dir := t.TempDir()
	a := titanic(t, dir)
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.CombineFiles([]string{a}, out, "vertical", false)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidArgument}))
	requireNoFile(t, out)
}

func TestJoinFilesInner(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "PassengerId,Name\n1,Braund\n2,Cumings\n3,Heikkinen\n")
	b := writeCSV(t, dir, "b.csv", "PassengerId,Fare\n2,71.28\n3,7.92\n4,8.05\n")
	out := filepath.Join(dir, "joined.csv")

	r := tablekit.NewRunner()
	res, err := r.JoinFiles(a, b, out, "PassengerId", "inner")
	require.NoError(t, err)

	// Unique keys on both sides: exactly the intersection.
	assert.Equal(t, 2, res.Rows)

	header, rows := readCSV(t, out)
	assert.Equal(t, []string{"PassengerId", "Name", "Fare"}, header)
	assert.Equal(t, []string{"2", "3"}, column(t, header, rows, "PassengerId"))
}

func TestJoinFilesSuffixesOverlap(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "id,v\n1,10\n")
	b := writeCSV(t, dir, "b.csv", "id,v\n1,20\n")
	out := filepath.Join(dir, "joined.csv")

	r := tablekit.NewRunner()
	_, err := r.JoinFiles(a, b, out, "id", "inner")
	require.NoError(t, err)

	header, _ := readCSV(t, out)
	assert.Equal(t, []string{"id", "v_file1", "v_file2"}, header)
}

func TestJoinFilesMissingColumnWritesNothing(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "id\n1\n")
	b := writeCSV(t, dir, "b.csv", "id\n1\n")
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.JoinFiles(a, b, out, "Nonexistent", "inner")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindColumnNotFound}))
	assert.Contains(t, err.Error(), "Nonexistent")
	requireNoFile(t, out)
}

func TestJoinFilesInvalidType(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "id\n1\n")
	b := writeCSV(t, dir, "b.csv", "id\n1\n")
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.JoinFiles(a, b, out, "id", "cross")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidArgument}))
	assert.Contains(t, err.Error(), "inner, left, right, outer")
	requireNoFile(t, out)
}

func TestMissingSourceFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "never.csv")

	r := tablekit.NewRunner()
	_, err := r.SelectColumns(filepath.Join(dir, "gone.csv"), out, []string{"x"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindNotFound}))
	requireNoFile(t, out)
}

func TestReadOnlyOpsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)

	r := tablekit.NewRunner()

	first, err := r.ColumnNames(src)
	require.NoError(t, err)
	second, err := r.ColumnNames(src)
	require.NoError(t, err)
	assert.Equal(t, first.ColumnNames, second.ColumnNames)

	d1, err := r.Describe(src)
	require.NoError(t, err)
	d2, err := r.Describe(src)
	require.NoError(t, err)
	assert.Equal(t, d1.Cells, d2.Cells)
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)

	r := tablekit.NewRunner()
	res, err := r.Preview(src, 2)
	require.NoError(t, err)

	require.Len(t, res.Cells, 2)
	assert.Equal(t, "Braund", res.Cells[0][0])
	assert.Contains(t, res.Render(), "Braund")
}

func TestInfoCountsMissing(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "data.csv", "a,b\n1,x\nNA,y\n")

	r := tablekit.NewRunner()
	res, err := r.Info(src)
	require.NoError(t, err)

	require.Len(t, res.Cells, 2)
	assert.Equal(t, []string{"a", "int64", "1", "1"}, res.Cells[0])
	assert.Equal(t, []string{"b", "utf8", "2", "0"}, res.Cells[1])
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "data.csv", "v,name\n1,x\n2,y\n3,z\n")

	r := tablekit.NewRunner()
	res, err := r.Describe(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"stat", "v"}, res.ColumnNames)
	require.Len(t, res.Cells, 8)
	assert.Equal(t, []string{"count", "3"}, res.Cells[0])
	assert.Equal(t, []string{"mean", "2"}, res.Cells[1])
	assert.Equal(t, []string{"50%", "2"}, res.Cells[5])
}

func TestSearchRows(t *testing.T) {
	dir := t.TempDir()
	src := titanic(t, dir)

	r := tablekit.NewRunner()
	res, err := r.SearchRows(src, "Sex", "FEMALE", 2)
	require.NoError(t, err)

	require.Len(t, res.Cells, 2)
	assert.Equal(t, "Cumings", res.Cells[0][0])
	assert.Equal(t, "Heikkinen", res.Cells[1][0])
}

func TestAppendRow(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "data.csv", "name,age\nalice,30\n")

	r := tablekit.NewRunner()
	res, err := r.AppendRow(src, map[string]string{"name": "bob", "age": "25"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)

	header, rows := readCSV(t, src)
	assert.Equal(t, []string{"alice", "bob"}, column(t, header, rows, "name"))
	assert.Equal(t, []string{"30", "25"}, column(t, header, rows, "age"))
}

func TestAppendRowBadCell(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "data.csv", "age\n30\n")

	r := tablekit.NewRunner()
	_, err := r.AppendRow(src, map[string]string{"age": "old"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindTypeMismatch}))

	// Source untouched on failure.
	_, rows := readCSV(t, src)
	assert.Len(t, rows, 1)
}

func TestAppendRowUnknownColumn(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "data.csv", "age\n30\n")

	r := tablekit.NewRunner()
	_, err := r.AppendRow(src, map[string]string{"height": "180"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindColumnNotFound}))
}

// countingAllocator counts allocations so tests can observe which
// allocator a code path builds arrays with.
type countingAllocator struct {
	mem    memory.Allocator
	allocs int
}

func (a *countingAllocator) Allocate(size int) []byte {
	a.allocs++
	return a.mem.Allocate(size)
}

func (a *countingAllocator) Reallocate(size int, b []byte) []byte {
	return a.mem.Reallocate(size, b)
}

func (a *countingAllocator) Free(b []byte) {
	a.mem.Free(b)
}

func TestDerivedColumnsUseConfiguredAllocator(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "cats.csv", "size\nmedium\nsmall\nlarge\n")

	loadOnly := &countingAllocator{mem: memory.NewGoAllocator()}
	_, err := tablekit.NewRunner(tablekit.WithAllocator(loadOnly)).ColumnNames(src)
	require.NoError(t, err)

	encoding := &countingAllocator{mem: memory.NewGoAllocator()}
	out := filepath.Join(dir, "encoded.csv")
	_, err = tablekit.NewRunner(tablekit.WithAllocator(encoding)).
		LabelEncode(src, out, []string{"size"})
	require.NoError(t, err)

	// The code column must be built on the runner's allocator, on top of
	// whatever loading needed.
	assert.Greater(t, encoding.allocs, loadOnly.allocs)
}

func TestRenderDroppedColumnsSorted(t *testing.T) {
	res := &tablekit.Result{
		Message: "combined",
		DroppedColumns: map[string][]string{
			"b.csv": {"z"},
			"a.csv": {"y"},
			"c.csv": {"x"},
		},
	}

	rendered := res.Render()
	a := strings.Index(rendered, "Dropped from a.csv")
	b := strings.Index(rendered, "Dropped from b.csv")
	c := strings.Index(rendered, "Dropped from c.csv")
	require.NotEqual(t, -1, a)
	require.NotEqual(t, -1, b)
	require.NotEqual(t, -1, c)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestCatalog(t *testing.T) {
	catalog := tablekit.Catalog()
	require.NotEmpty(t, catalog)

	seen := make(map[string]bool)
	for _, tool := range catalog {
		assert.False(t, seen[tool.Name], "duplicate tool %s", tool.Name)
		seen[tool.Name] = true
		assert.NotEmpty(t, tool.Description)
	}

	for _, name := range []string{
		"select_columns", "create_column", "normalize_column", "one_hot_encode",
		"filter_rows", "impute_missing", "handle_outliers", "combine_files",
		"join_files", "hash_encode",
	} {
		assert.True(t, seen[name], "catalog missing %s", name)
	}
}
