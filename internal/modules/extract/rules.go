// README: Ordered pattern rules pulling order fields out of a text window.
package extract

import (
	"regexp"
	"strings"

	"bvetra/internal/modules/draft"
	"bvetra/internal/phone"
)

// A rule inspects the window and may set fields on the candidate set.
// Rules are independent: a non-match simply leaves its field absent.
type rule func(w window, f *draft.Fields)

// rules are applied in order; ordering only matters where a later rule fills
// a field the earlier one left empty (the pickup/dropoff fallbacks).
var rules = []rule{
	rulePhone,
	ruleName,
	ruleRoute,
	rulePickupFallback,
	ruleDropoffFallback,
	ruleDatetime,
	ruleCarClass,
	ruleNotes,
}

// window carries the raw and lowercased forms of the transcript slice.
type window struct {
	text  string
	lower string
}

// Note: \b is useless for Cyrillic in RE2 (word chars are ASCII), so triggers
// are anchored with (?:^|[^\p{L}]) instead.
var (
	phoneRe = regexp.MustCompile(`\+?\d[\d \-()]{4,}\d`)

	nameRe = regexp.MustCompile(`(?:[Мм]еня зовут|[Мм]о[её] имя|[Mm]y name is|I am|I'm)\s+(\p{Lu}[\p{L}'\-]*(?:\s+\p{Lu}[\p{L}'\-]*){0,2})`)

	// location tokens are letter-initial so a trailing clock time is never
	// swallowed into a captured span
	token = `\p{L}[\p{L}\d\-]*`

	routeRuRe = regexp.MustCompile(`(?:^|[^\p{L}])(?:[Ии]з|[Оо]т|[Сс]о)\s+(` + token + `(?:\s+` + token + `){0,3}?)\s+(?:в|до|на|к)\s+(` + token + `(?:\s+` + token + `){0,2})`)
	routeEnRe = regexp.MustCompile(`(?:^|[^A-Za-z])[Ff]rom\s+(` + token + `(?:\s+` + token + `){0,3}?)\s+to\s+(` + token + `(?:\s+` + token + `){0,2})`)

	pickupRe  = regexp.MustCompile(`(?:[Зз]абрать (?:из|с|от)|[Пп]одача(?: из| с| от)?|[Пп]одать (?:к|на|в)|[Pp]ick ?up (?:from|at))\s+(` + token + `(?:\s+` + token + `){0,3})`)
	dropoffRe = regexp.MustCompile(`(?:[Нн]азначени[ея][:\s]+|[Ее]хать (?:в|до)|[Ее]ду (?:в|до)|[Оо]твезти (?:в|до|на)|[Gg]oing to|[Dd]rop ?off (?:at|in))\s*(` + token + `(?:\s+` + token + `){0,3})`)

	timeRe        = regexp.MustCompile(`\d{1,2}:\d{2}`)
	relativeDayRe = regexp.MustCompile(`(?:[Пп]ослезавтра|[Зз]автра|[Сс]егодня|[Tt]omorrow|[Tt]oday)`)
	calendarRe    = regexp.MustCompile(`\d{1,2}\s+(?:январ[яь]|феврал[яь]|марта?|апрел[яь]|ма[яй]|июн[яь]|июл[яь]|августа?|сентябр[яь]|октябр[яь]|ноябр[яь]|декабр[яь]|january|february|march|april|may|june|july|august|september|october|november|december)`)
	numericDateRe = regexp.MustCompile(`\d{1,2}[./]\d{1,2}(?:[./]\d{2,4})?`)
)

// spanStopwords are trimmed from the tail of captured location spans; the
// greedy token capture tends to swallow the following time phrase.
var spanStopwords = map[string]bool{
	"в": true, "до": true, "на": true, "к": true, "и": true,
	"завтра": true, "сегодня": true, "послезавтра": true,
	"to": true, "at": true, "on": true, "tomorrow": true, "today": true,
}

func rulePhone(w window, f *draft.Fields) {
	for _, m := range phoneRe.FindAllString(w.text, -1) {
		if significantDigits(m) < 6 {
			continue
		}
		f.Phone = phone.Normalize(m)
		return
	}
}

func ruleName(w window, f *draft.Fields) {
	if m := nameRe.FindStringSubmatch(w.text); m != nil {
		f.Name = strings.TrimSpace(m[1])
	}
}

// ruleRoute prefers a single "from A to B" match capturing both spans.
func ruleRoute(w window, f *draft.Fields) {
	m := routeRuRe.FindStringSubmatch(w.text)
	if m == nil {
		m = routeEnRe.FindStringSubmatch(w.text)
	}
	if m == nil {
		return
	}
	pickup := trimSpan(m[1])
	dropoff := trimSpan(m[2])
	if pickup != "" {
		f.Pickup = pickup
	}
	if dropoff != "" {
		f.Dropoff = dropoff
	}
}

func rulePickupFallback(w window, f *draft.Fields) {
	if f.Pickup != "" {
		return
	}
	if m := pickupRe.FindStringSubmatch(w.text); m != nil {
		f.Pickup = trimSpan(m[1])
	}
}

func ruleDropoffFallback(w window, f *draft.Fields) {
	if f.Dropoff != "" {
		return
	}
	if m := dropoffRe.FindStringSubmatch(w.text); m != nil {
		f.Dropoff = trimSpan(m[1])
	}
}

// ruleDatetime combines the first day reference with the first clock time.
func ruleDatetime(w window, f *draft.Fields) {
	var parts []string
	if m := relativeDayRe.FindString(w.text); m != "" {
		parts = append(parts, strings.ToLower(m))
	} else if m := calendarRe.FindString(w.lower); m != "" {
		parts = append(parts, m)
	} else if m := numericDateRe.FindString(w.text); m != "" {
		parts = append(parts, m)
	}
	if m := timeRe.FindString(w.text); m != "" {
		parts = append(parts, m)
	}
	if len(parts) > 0 {
		f.Datetime = strings.Join(parts, " ")
	}
}

func ruleCarClass(w window, f *draft.Fields) {
	best := -1
	for _, kw := range carClassKeywords {
		idx := strings.Index(w.lower, kw.keyword)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			f.CarClass = kw.class
		}
	}
}

func ruleNotes(w window, f *draft.Fields) {
	var fragments []string
	for _, group := range noteKeywords {
		for _, trigger := range group.triggers {
			if strings.Contains(w.lower, trigger) {
				fragments = append(fragments, group.fragment)
				break
			}
		}
	}
	if len(fragments) > 0 {
		f.Notes = strings.Join(fragments, "; ")
	}
}

func trimSpan(span string) string {
	words := strings.Fields(span)
	for len(words) > 0 && spanStopwords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func significantDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
