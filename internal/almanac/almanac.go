// Package almanac supplies the four sexagenary pillars (year/month/day/hour)
// for a timestamp. It stands in for a full lunar almanac: cycles are computed
// arithmetically from the Gregorian date, without solar-term boundaries.
// The engine only requires the mapping to be pure and deterministic; callers
// with a real almanac can supply their own Calendar.
package almanac

import "time"

// Stems and Branches are the ten heavenly stems and twelve earthly branches,
// exported for the element tables in the dimension package.
var (
	Stems    = []rune("甲乙丙丁戊己庚辛壬癸")
	Branches = []rune("子丑寅卯辰巳午未申酉戌亥")
)

// Pillars holds the four two-rune stem+branch labels.
type Pillars struct {
	Year  string
	Month string
	Day   string
	Hour  string
}

// Calendar maps a timestamp to its four pillars.
type Calendar interface {
	Pillars(t time.Time) Pillars
}

// Sexagenary is the default arithmetic Calendar.
type Sexagenary struct{}

// Pillars computes all four pillars for t (in t's own location).
func (Sexagenary) Pillars(t time.Time) Pillars {
	year := t.Year()
	yearStem := imod(year-4, 10)
	yearBranch := imod(year-4, 12)

	// Month branch: 寅 opens the cycle; Gregorian month stands in for the
	// lunar month ordinal. Month stem follows the five-tigers rule from the
	// year stem.
	monthOrdinal := int(t.Month()) // 1..12, month 1 ≈ 寅
	monthBranch := imod(monthOrdinal+1, 12)
	monthStem := imod((yearStem%5)*2+monthOrdinal, 10)

	jdn := julianDayNumber(t)
	dayStem := imod(jdn+9, 10)
	dayBranch := imod(jdn+1, 12)

	// Two-hour slots starting at 23:00 = 子. Hour stem follows the
	// five-rats rule from the day stem.
	hourBranch := imod((t.Hour()+1)/2, 12)
	hourStem := imod((dayStem%5)*2+hourBranch, 10)

	return Pillars{
		Year:  pillar(yearStem, yearBranch),
		Month: pillar(monthStem, monthBranch),
		Day:   pillar(dayStem, dayBranch),
		Hour:  pillar(hourStem, hourBranch),
	}
}

func pillar(stem, branch int) string {
	return string(Stems[stem]) + string(Branches[branch])
}

// julianDayNumber converts the calendar date to a Julian day number.
func julianDayNumber(t time.Time) int {
	y, m, d := t.Year(), int(t.Month()), t.Day()
	a := (14 - m) / 12
	y2 := y + 4800 - a
	m2 := m + 12*a - 3
	return d + (153*m2+2)/5 + 365*y2 + y2/4 - y2/100 + y2/400 - 32045
}

func imod(n, m int) int {
	r := n % m
	if r < 0 {
		r += m
	}
	return r
}
