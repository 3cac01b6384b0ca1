package convert

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sorryxx18/firefit-score-converter/internal/cell"
	"github.com/sorryxx18/firefit-score-converter/internal/profile"
	"github.com/sorryxx18/firefit-score-converter/internal/sheet"
	"github.com/sorryxx18/firefit-score-converter/internal/standards"
)

var rosterHeader = []string{
	"姓名", "性別", "年齡", "年齡層",
	"立定跳遠(cm)", "後拋擲遠(m)", "折返跑(趟)", "菱形槓硬舉(公斤)", "負重行走", "1500公尺跑步(秒)",
	"懸吊屈體(次)", "懸吊屈體(秒)",
}

func testTable() *standards.Table {
	e := func(sex, br, item string, threshold, score float64) standards.Entry {
		return standards.Entry{Sex: sex, Bracket: br, Item: item, Threshold: threshold, Score: score}
	}
	return standards.New(
		e("男", "20-29", "立定跳遠", 200, 60),
		e("男", "20-29", "立定跳遠", 250, 100),
		e("男", "20-29", "1500跑步", 400, 60),
		e("男", "20-29", "1500跑步", 350, 100),
		e("男", "20-29", "懸吊屈體", 5, 60),
		e("男", "20-29", "懸吊屈體", 10, 100),
		e("男", "30-39", "立定跳遠", 180, 60),
		e("男", "30-39", "立定跳遠", 230, 100),
		e("女", "不分年齡", "立定跳遠", 150, 60),
		e("女", "不分年齡", "懸吊次數", 1, 40),
		e("女", "不分年齡", "懸吊次數", 3, 50),
		e("女", "不分年齡", "懸吊秒數", 30, 70),
		e("女", "不分年齡", "懸吊秒數", 45, 80),
		e("女", "不分年齡", "懸吊秒數", 60, 90),
	)
}

func standardProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p, err := profile.LoadBuiltin(profile.DefaultName)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// row builds a roster row from column/value pairs.
func row(header []string, kv map[string]string) []string {
	r := make([]string, len(header))
	for i, h := range header {
		r[i] = kv[h]
	}
	return r
}

func runOne(t *testing.T, kv map[string]string) map[string]string {
	t.Helper()
	roster := &sheet.Table{Header: rosterHeader, Rows: [][]string{row(rosterHeader, kv)}}
	out, _, err := New(standardProfile(t), testTable()).Run(context.Background(), roster)
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]string, len(out.Header))
	for i, h := range out.Header {
		got[h] = out.Rows[0][i]
	}
	return got
}

func TestRunMaleRegularItems(t *testing.T) {
	got := runOne(t, map[string]string{
		"性別": "男", "年齡": "25",
		"立定跳遠(cm)": "250", "1500公尺跑步(秒)": "380", "懸吊屈體(次)": "7",
	})
	want := map[string]string{
		"立定跳遠_得分":   "100",
		"1500跑步_得分": "60",
		"後拋擲遠_得分":   "0",
		"懸吊屈體_總得分":  "60",
		"總分":        "220",
	}
	for col, w := range want {
		if got[col] != w {
			t.Errorf("%s = %q, want %q", col, got[col], w)
		}
	}
}

func TestRunManualBracketWins(t *testing.T) {
	got := runOne(t, map[string]string{
		"性別": "男", "年齡": "25", "年齡層": "30-39", "立定跳遠(cm)": "235",
	})
	// 235 clears the 30-39 top band but only the 20-29 lower band.
	if got["立定跳遠_得分"] != "100" {
		t.Errorf("立定跳遠_得分 = %q, want 100", got["立定跳遠_得分"])
	}
}

func TestRunUnresolvedBracketScoresZero(t *testing.T) {
	got := runOne(t, map[string]string{
		"性別": "男", "立定跳遠(cm)": "300", "懸吊屈體(次)": "20",
	})
	for _, col := range standardProfile(t).OutputColumns() {
		if got[col] != "0" {
			t.Errorf("%s = %q, want 0", col, got[col])
		}
	}
}

func TestRunUnknownSexScoresZero(t *testing.T) {
	got := runOne(t, map[string]string{
		"性別": "X", "年齡": "25", "立定跳遠(cm)": "300", "懸吊屈體(次)": "20",
	})
	if got["總分"] != "0" {
		t.Errorf("總分 = %q, want 0", got["總分"])
	}
}

func TestRunFemaleIgnoresAge(t *testing.T) {
	got := runOne(t, map[string]string{"性別": "女", "年齡": "55", "立定跳遠(cm)": "160"})
	if got["立定跳遠_得分"] != "60" {
		t.Errorf("立定跳遠_得分 = %q, want 60", got["立定跳遠_得分"])
	}
}

func TestRunHangItem(t *testing.T) {
	tests := []struct {
		name     string
		sex      string
		reps     string
		duration string
		want     string
	}{
		{"female reps win over duration", "女", "3", "60", "50"},
		{"female zero reps uses duration", "女", "0", "45", "80"},
		{"female negative reps uses duration", "女", "-1", "60", "90"},
		{"female non numeric reps uses duration", "女", "abc", "30", "70"},
		{"female blank reps uses duration", "女", "", "45", "80"},
		{"female nothing", "女", "", "", "0"},
		{"female reps below every band", "女", "0.5", "60", "0"},
		{"male uses hold count", "男", "10", "60", "100"},
		{"male ignores duration", "男", "", "60", "0"},
		{"unknown sex", "?", "10", "60", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runOne(t, map[string]string{
				"性別": tt.sex, "年齡": "25", "懸吊屈體(次)": tt.reps, "懸吊屈體(秒)": tt.duration,
			})
			if got["懸吊屈體_總得分"] != tt.want {
				t.Errorf("懸吊屈體_總得分 = %q, want %q", got["懸吊屈體_總得分"], tt.want)
			}
			if got["總分"] != tt.want {
				t.Errorf("總分 = %q, want %q", got["總分"], tt.want)
			}
		})
	}
}

func TestRunTotalIsSumOfItems(t *testing.T) {
	roster := &sheet.Table{Header: rosterHeader}
	inputs := []map[string]string{
		{"性別": "男", "年齡": "22", "立定跳遠(cm)": "260", "1500公尺跑步(秒)": "340", "懸吊屈體(次)": "12"},
		{"性別": "男", "年齡": "35", "立定跳遠(cm)": "200", "1500公尺跑步(秒)": "DNF"},
		{"性別": "女", "立定跳遠(cm)": "151", "懸吊屈體(次)": "1", "懸吊屈體(秒)": "60"},
		{"性別": "", "立定跳遠(cm)": "260"},
	}
	for _, kv := range inputs {
		roster.Rows = append(roster.Rows, row(rosterHeader, kv))
	}

	p := standardProfile(t)
	out, summary, err := New(p, testTable()).Run(context.Background(), roster)
	if err != nil {
		t.Fatal(err)
	}

	scoreCols := p.OutputColumns()
	scoreCols = scoreCols[:len(scoreCols)-1]
	totalIdx, _ := out.Index(p.TotalColumn)
	for i, r := range out.Rows {
		sum := 0.0
		for _, col := range scoreCols {
			idx, ok := out.Index(col)
			if !ok {
				t.Fatalf("missing output column %s", col)
			}
			v, ok := cell.Number(r[idx])
			if !ok || v < 0 {
				t.Errorf("row %d %s = %q, want non-negative number", i, col, r[idx])
			}
			sum += v
		}
		total, _ := cell.Number(r[totalIdx])
		if total != sum {
			t.Errorf("row %d total = %v, want %v", i, total, sum)
		}
		if summary.Totals[i] != total {
			t.Errorf("row %d summary total = %v, want %v", i, summary.Totals[i], total)
		}
	}
	if want := []float64{300, 60, 100, 0}; !reflect.DeepEqual(summary.Totals, want) {
		t.Errorf("totals = %v, want %v", summary.Totals, want)
	}
	if summary.Unresolved != 1 || summary.UnknownSex != 1 {
		t.Errorf("unresolved=%d unknownSex=%d, want 1 and 1", summary.Unresolved, summary.UnknownSex)
	}
}

func TestRunMissingColumn(t *testing.T) {
	header := []string{"性別", "年齡", "立定跳遠(cm)", "懸吊屈體(次)", "懸吊屈體(秒)"}
	roster := &sheet.Table{
		Header: header,
		Rows: [][]string{
			row(header, map[string]string{"性別": "男", "年齡": "25", "立定跳遠(cm)": "250", "懸吊屈體(次)": "5"}),
			row(header, map[string]string{"性別": "男", "年齡": "26", "立定跳遠(cm)": "200", "懸吊屈體(次)": "10"}),
		},
	}
	p := standardProfile(t)
	out, summary, err := New(p, testTable()).Run(context.Background(), roster)
	if err != nil {
		t.Fatal(err)
	}

	runIdx, _ := out.Index("1500跑步_得分")
	totalIdx, _ := out.Index("總分")
	wantTotals := []string{"160", "160"}
	for i, r := range out.Rows {
		if r[runIdx] != "0" {
			t.Errorf("row %d 1500跑步_得分 = %q, want 0", i, r[runIdx])
		}
		if r[totalIdx] != wantTotals[i] {
			t.Errorf("row %d total = %q, want %q", i, r[totalIdx], wantTotals[i])
		}
	}

	missing := 0
	for _, w := range summary.Warnings {
		if w.Kind == WarnMissingColumn && w.Subject == "1500公尺跑步(秒)" {
			missing++
		}
	}
	if missing != 1 {
		t.Errorf("expected exactly one warning for the run column, got %d", missing)
	}
	if summary.ZeroScores["1500跑步_得分"] != 2 {
		t.Errorf("ZeroScores[1500跑步_得分] = %d, want 2", summary.ZeroScores["1500跑步_得分"])
	}
}

func TestRunPreservesRosterAndOrder(t *testing.T) {
	header := append([]string{"備註"}, rosterHeader...)
	roster := &sheet.Table{Header: header, Sheet: "成績", BOM: true}
	for i, name := range []string{"甲", "乙", "丙", "丁"} {
		roster.Rows = append(roster.Rows, row(header, map[string]string{
			"備註": strings.Repeat("*", i), "姓名": name, "性別": "男", "年齡": "2" + string(rune('0'+i)),
			"立定跳遠(cm)": "20" + string(rune('0'+i)),
		}))
	}
	before := make([][]string, len(roster.Rows))
	for i, r := range roster.Rows {
		before[i] = append([]string(nil), r...)
	}

	p := standardProfile(t)
	out, _, err := New(p, testTable()).Run(context.Background(), roster)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(roster.Rows, before) {
		t.Error("input rows were modified")
	}
	if out.Sheet != "成績" || !out.BOM {
		t.Error("sheet metadata not carried over")
	}
	wantHeader := append(append([]string(nil), header...), p.OutputColumns()...)
	if !reflect.DeepEqual(out.Header, wantHeader) {
		t.Errorf("header = %v, want %v", out.Header, wantHeader)
	}
	if len(out.Rows) != len(before) {
		t.Fatalf("got %d rows, want %d", len(out.Rows), len(before))
	}
	for i, r := range out.Rows {
		if !reflect.DeepEqual(r[:len(header)], before[i]) {
			t.Errorf("row %d original cells changed: %v", i, r[:len(header)])
		}
	}
	for _, h := range out.Header {
		if h == "查表用年齡層" {
			t.Error("bracket helper column leaked into output")
		}
	}
}

func TestRunOverwritesExistingScoreColumns(t *testing.T) {
	p := standardProfile(t)
	header := append(append([]string(nil), rosterHeader...), p.OutputColumns()...)
	stale := row(header, map[string]string{"性別": "男", "年齡": "25", "立定跳遠(cm)": "250", "總分": "999"})
	roster := &sheet.Table{Header: header, Rows: [][]string{stale}}

	out, _, err := New(p, testTable()).Run(context.Background(), roster)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Header) != len(header) {
		t.Fatalf("header grew to %d columns, want %d", len(out.Header), len(header))
	}
	idx, _ := out.Index("總分")
	if out.Rows[0][idx] != "100" {
		t.Errorf("總分 = %q, want 100", out.Rows[0][idx])
	}
}

func TestRunNoDirectionScoresZero(t *testing.T) {
	p := standardProfile(t)
	delete(p.Directions, "立定跳遠")
	delete(p.Directions, "懸吊次數")

	roster := &sheet.Table{Header: rosterHeader, Rows: [][]string{
		row(rosterHeader, map[string]string{"性別": "男", "年齡": "25", "立定跳遠(cm)": "250"}),
		row(rosterHeader, map[string]string{"性別": "女", "懸吊屈體(次)": "3", "懸吊屈體(秒)": "60"}),
	}}
	out, summary, err := New(p, testTable()).Run(context.Background(), roster)
	if err != nil {
		t.Fatal(err)
	}
	jumpIdx, _ := out.Index("立定跳遠_得分")
	hangIdx, _ := out.Index("懸吊屈體_總得分")
	if out.Rows[0][jumpIdx] != "0" {
		t.Errorf("立定跳遠_得分 = %q, want 0", out.Rows[0][jumpIdx])
	}
	// Reps above zero still decide the path; the duration is not consulted.
	if out.Rows[1][hangIdx] != "0" {
		t.Errorf("懸吊屈體_總得分 = %q, want 0", out.Rows[1][hangIdx])
	}

	kinds := map[string]bool{}
	for _, w := range summary.Warnings {
		if w.Kind == WarnNoDirection {
			kinds[w.Subject] = true
		}
	}
	if !kinds["立定跳遠"] || !kinds["懸吊次數"] {
		t.Errorf("missing no-direction warnings: %v", summary.Warnings)
	}
}

func TestRunWorkersMatchSequential(t *testing.T) {
	roster := &sheet.Table{Header: rosterHeader}
	for i := 0; i < 200; i++ {
		sex := "男"
		if i%3 == 0 {
			sex = "女"
		}
		roster.Rows = append(roster.Rows, row(rosterHeader, map[string]string{
			"性別": sex, "年齡": cell.Format(float64(20 + i%40)),
			"立定跳遠(cm)": cell.Format(float64(150 + i)), "1500公尺跑步(秒)": cell.Format(float64(330 + i%90)),
			"懸吊屈體(次)": cell.Format(float64(i % 12)), "懸吊屈體(秒)": cell.Format(float64(i % 70)),
		}))
	}

	p := standardProfile(t)
	seq, _, err := New(p, testTable()).Run(context.Background(), roster)
	if err != nil {
		t.Fatal(err)
	}
	par, _, err := New(p, testTable(), WithWorkers(8)).Run(context.Background(), roster)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seq, par) {
		t.Error("parallel run differs from sequential run")
	}
}

func TestRunCancelled(t *testing.T) {
	roster := &sheet.Table{Header: rosterHeader, Rows: [][]string{row(rosterHeader, nil)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		_, _, err := New(standardProfile(t), testTable(), WithWorkers(workers)).Run(ctx, roster)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: expected context.Canceled, got %v", workers, err)
		}
	}
}

func TestSummaryTotalRange(t *testing.T) {
	lo, hi, mean := Summary{Totals: []float64{10, 30, 20}}.TotalRange()
	if lo != 10 || hi != 30 || mean != 20 {
		t.Errorf("TotalRange() = %v, %v, %v", lo, hi, mean)
	}
	lo, hi, mean = Summary{}.TotalRange()
	if lo != 0 || hi != 0 || mean != 0 {
		t.Error("empty summary should report zeros")
	}
}
