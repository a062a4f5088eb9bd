package extract

import (
	"regexp"
	"strings"

	"github.com/gemtrack/bid-tracker/constants"
)

// coerceFunc turns a raw matched substring into a typed Value. Coercion
// failure is never an error; the raw text is kept instead.
type coerceFunc func(raw string) Value

func asText(raw string) Value { return Text(raw) }

func asDate(raw string) Value {
	if t, ok := parseDate(raw); ok {
		return Date(t)
	}
	return Text(raw)
}

func asAltDate(raw string) Value {
	if t, ok := parseAltDate(raw); ok {
		return Date(t)
	}
	return Text(raw)
}

func asInt(raw string) Value {
	if n, ok := parseLeadingInt(raw); ok {
		return Number(float64(n))
	}
	return Text(raw)
}

func asNumber(raw string) Value {
	if n, ok := parseNumber(raw); ok {
		return Number(n)
	}
	return Text(raw)
}

type pattern struct {
	re     *regexp.Regexp
	coerce coerceFunc
}

func pat(expr string, coerce coerceFunc) pattern {
	return pattern{re: regexp.MustCompile(expr), coerce: coerce}
}

func (p pattern) apply(text string) (Value, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return Absent(), false
	}
	raw := m[0]
	if len(m) > 1 {
		raw = m[1]
	}
	raw = cleanValue(raw)
	if raw == "" {
		return Absent(), false
	}
	return p.coerce(raw), true
}

// rule is one (field, primary, fallback) entry of the static ordered rule
// table. Rules are independent; evaluation of one never affects another.
type rule struct {
	field    string
	primary  pattern
	fallback *pattern
}

func withFallback(expr string, coerce coerceFunc) *pattern {
	p := pat(expr, coerce)
	return &p
}

// rules covers the full fixed schema in schema order. Primary patterns
// anchor on the label layouts seen in GeM bid PDFs (label on its own line,
// value on the next); fallbacks cover the colon-separated variant and, for
// the bid number, the bare GEM identifier formats.
var rules = []rule{
	{
		field:    constants.FieldDated,
		primary:  pat(`(?i)dated\s*:\s*([^\n]+)`, asDate),
		fallback: withFallback(`\d{1,2}-[A-Za-z]{3}-\d{4}`, asAltDate),
	},
	{
		field:    constants.FieldBidNumber,
		primary:  pat(`(?i)bid\s*(?:number|no)\s*:\s*([A-Za-z0-9/_.-]+)`, asText),
		fallback: withFallback(`GEM\d{4}[A-Z]\d+|GEM[A-Z]*-\d+(?:-\d+)*`, asText),
	},
	{
		field:   constants.FieldBeneficiary,
		primary: pat(`(?i)beneficiary\s*:\s*([^\n]+)`, asText),
	},
	{
		field:    constants.FieldMinistry,
		primary:  pat(`(?i)Ministry/State Name\s*\n([^\n]+)`, asText),
		fallback: withFallback(`(?i)ministry\s*:?\s*\n?([A-Za-z &]+)`, asText),
	},
	{
		field:    constants.FieldDepartment,
		primary:  pat(`(?i)Department Name\s*\n([^\n]+)`, asText),
		fallback: withFallback(`(?i)department\s*:\s*([^\n]+)`, asText),
	},
	{
		field:    constants.FieldOrganisation,
		primary:  pat(`(?i)Organisation Name\s*\n([^\n]+)`, asText),
		fallback: withFallback(`(?i)organisation\s*:\s*([^\n]+)`, asText),
	},
	{
		field:    constants.FieldOfficeName,
		primary:  pat(`(?i)Office Name\s*\n([^\n]+)`, asText),
		fallback: withFallback(`(?i)office\s*name\s*:\s*([^\n]+)`, asText),
	},
	{
		field:    constants.FieldContractPeriod,
		primary:  pat(`(?i)Contract Period\s*\n([^\n]+)`, asText),
		fallback: withFallback(`(?i)contract\s*period\s*:\s*([^\n]+)`, asText),
	},
	{
		field:    constants.FieldItemCategory,
		primary:  pat(`(?is)Item Category\s*\n(.+?)(?:\nGeMARPTS|\n[A-Za-z][^\n:]*:|\z)`, asText),
		fallback: withFallback(`(?is)item\s*category\s*:\s*(.+?)(?:\n[A-Za-z][^\n:]*:|\z)`, asText),
	},
	{
		field:    constants.FieldEstimatedBidValue,
		primary:  pat(`(?i)Estimated Bid Value\s*\n([^\n]+)`, asNumber),
		fallback: withFallback(`(?i)estimated\s*bid\s*value\s*:?\s*([0-9.,]+)`, asNumber),
	},
	{
		field:    constants.FieldTotalQuantity,
		primary:  pat(`(?i)Total Quantity\s*\n?(\d+)`, asInt),
		fallback: withFallback(`(?i)total\s*quantity\s*:\s*(\d+)`, asInt),
	},
	{
		field:    constants.FieldBidEndDatetime,
		primary:  pat(`(?i)Bid End Date/Time\s*\n([^\n]+)`, asText),
		fallback: withFallback(`(?i)bid\s*end\s*date\s*/\s*time\s*:\s*([^\n]+)`, asText),
	},
	{
		field:    constants.FieldBidOpenDatetime,
		primary:  pat(`(?i)Bid Opening\s*\n?Date/Time\s*\n([^\n]+)`, asText),
		fallback: withFallback(`(?i)bid\s*opening\s*date\s*/\s*time\s*:\s*([^\n]+)`, asText),
	},
	{
		field:    constants.FieldBidOfferValidityDays,
		primary:  pat(`(?is)Bid Offer\s*\nValidity \(From End Date\)\s*\n([^\n]+)`, asInt),
		fallback: withFallback(`(?i)bid\s*offer\s*validity\s*\(from\s*end\s*date\)\s*:?\s*([^\n]+)`, asInt),
	},
	{
		field:    constants.FieldSimilarCategory,
		primary:  pat(`(?i)Similar Category\s*\n([^\n]+)`, asText),
		fallback: withFallback(`(?i)similar\s*category\s*:\s*([^\n]+)`, asText),
	},
	{
		field:    constants.FieldMseExemption,
		primary:  pat(`(?is)MSE Exemption for Years of\s*\nExperience and Turnover\s*\n([^\n]+)`, asText),
		fallback: withFallback(`(?i)mse\s*exemption\s*for\s*years\s*of\s*experience\s*and\s*turnover\s*:\s*([^\n]+)`, asText),
	},
	{
		field:    constants.FieldEvaluationMethod,
		primary:  pat(`(?i)Evaluation Method\s*\n([^\n]+)`, asText),
		fallback: withFallback(`(?i)evaluation\s*method\s*:\s*([^\n]+)`, asText),
	},
	{
		field:   constants.FieldMiiPurchasePreference,
		primary: pat(`(?i)MII Purchase Preference\s*:?\s*\n?(Yes|No)`, asText),
	},
	{
		field:   constants.FieldMsePurchasePreference,
		primary: pat(`(?i)MSE Purchase Preference\s*:?\s*\n?(Yes|No)`, asText),
	},
	{
		field:    constants.FieldDeliveryDays,
		primary:  pat(`(?i)Delivery\s+Days\s+(\d+)`, asInt),
		fallback: withFallback(`(?i)delivery\s*days\s*:\s*(\d+)`, asInt),
	},
}

// Extract runs the ordered rule table against cleaned text and returns a
// record covering the full fixed schema. Missing fields are explicit absent
// entries; a malformed document yields a record dominated by them, never an
// error.
func Extract(text string) Record {
	rec := NewRecord()
	for _, r := range rules {
		if v, ok := r.primary.apply(text); ok {
			rec[r.field] = v
			continue
		}
		if r.fallback != nil {
			if v, ok := r.fallback.apply(text); ok {
				rec[r.field] = v
			}
		}
	}
	return rec
}

var innerSpace = regexp.MustCompile(`\s+`)

// cleanValue normalizes a captured span: pipe table separators become
// spaces and runs of whitespace collapse.
func cleanValue(s string) string {
	s = strings.ReplaceAll(s, "|", " ")
	return strings.TrimSpace(innerSpace.ReplaceAllString(s, " "))
}
