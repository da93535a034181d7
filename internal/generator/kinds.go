package generator

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/brianvoe/gofakeit/v7"
)

// Kind names the fake value a field produces.
type Kind string

const (
	KindText      Kind = "text"
	KindWord      Kind = "word"
	KindInt       Kind = "int"
	KindFloat     Kind = "float"
	KindBool      Kind = "bool"
	KindName      Kind = "name"
	KindFirstName Kind = "first_name"
	KindLastName  Kind = "last_name"
	KindUsername  Kind = "username"
	KindEmail     Kind = "email"
	KindPassword  Kind = "password"
	KindPhone     Kind = "phone"
	KindStreet    Kind = "street"
	KindCity      Kind = "city"
	KindCountry   Kind = "country"
	KindZip       Kind = "zip"
	KindCompany   Kind = "company"
	KindJobTitle  Kind = "job_title"
	KindURL       Kind = "url"
	KindUUID      Kind = "uuid"
	KindDate      Kind = "date"
	KindDateTime  Kind = "datetime"
	KindGeo       Kind = "geo"
	KindEnum      Kind = "enum"
)

var knownKinds = map[Kind]struct{}{
	KindText: {}, KindWord: {}, KindInt: {}, KindFloat: {}, KindBool: {},
	KindName: {}, KindFirstName: {}, KindLastName: {}, KindUsername: {},
	KindEmail: {}, KindPassword: {}, KindPhone: {}, KindStreet: {},
	KindCity: {}, KindCountry: {}, KindZip: {}, KindCompany: {},
	KindJobTitle: {}, KindURL: {}, KindUUID: {}, KindDate: {},
	KindDateTime: {}, KindGeo: {}, KindEnum: {},
}

// Valid reports whether k is a kind the generator can produce.
func (k Kind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

const (
	defaultTextChars = 100
	defaultIntMax    = 9999
	defaultFloatMax  = 10000
)

// fieldHints maps normalized JSON keys to the kind used for their string values.
var fieldHints = map[string]Kind{
	"name":         KindName,
	"fullname":     KindName,
	"firstname":    KindFirstName,
	"givenname":    KindFirstName,
	"lastname":     KindLastName,
	"surname":      KindLastName,
	"familyname":   KindLastName,
	"username":     KindUsername,
	"login":        KindUsername,
	"email":        KindEmail,
	"emailaddress": KindEmail,
	"mail":         KindEmail,
	"password":     KindPassword,
	"phone":        KindPhone,
	"phonenumber":  KindPhone,
	"telephone":    KindPhone,
	"mobile":       KindPhone,
	"address":      KindStreet,
	"street":       KindStreet,
	"city":         KindCity,
	"town":         KindCity,
	"country":      KindCountry,
	"zip":          KindZip,
	"zipcode":      KindZip,
	"postcode":     KindZip,
	"postalcode":   KindZip,
	"company":      KindCompany,
	"employer":     KindCompany,
	"organisation": KindCompany,
	"organization": KindCompany,
	"job":          KindJobTitle,
	"jobtitle":     KindJobTitle,
	"url":          KindURL,
	"website":      KindURL,
	"homepage":     KindURL,
	"uuid":         KindUUID,
	"guid":         KindUUID,
	"date":         KindDate,
	"birthdate":    KindDate,
	"dateofbirth":  KindDate,
	"dob":          KindDate,
}

// hintFor returns the kind suggested by a JSON key, if any.
func hintFor(key string) (Kind, bool) {
	var b strings.Builder
	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	k, ok := fieldHints[b.String()]
	return k, ok
}

// fake produces one value for a field. Callers hold the generator lock.
func fake(f *gofakeit.Faker, field Field) any {
	switch field.Kind {
	case KindText:
		return text(f, int(orDefault(field.Max, defaultTextChars)))
	case KindWord:
		return f.Word()
	case KindInt:
		return f.IntRange(int(field.Min), int(orDefault(field.Max, defaultIntMax)))
	case KindFloat:
		return round2(f.Float64Range(field.Min, orDefault(field.Max, defaultFloatMax)))
	case KindBool:
		return f.Bool()
	case KindName:
		return f.Name()
	case KindFirstName:
		return f.FirstName()
	case KindLastName:
		return f.LastName()
	case KindUsername:
		return f.Username()
	case KindEmail:
		return f.Email()
	case KindPassword:
		return f.Password(true, true, true, false, false, 12)
	case KindPhone:
		return f.Phone()
	case KindStreet:
		return f.Street()
	case KindCity:
		return f.City()
	case KindCountry:
		return f.Country()
	case KindZip:
		return f.Zip()
	case KindCompany:
		return f.Company()
	case KindJobTitle:
		return f.JobTitle()
	case KindURL:
		return f.URL()
	case KindUUID:
		return f.UUID()
	case KindDate:
		return dateBetween(f, field).Format("2006-01-02")
	case KindDateTime:
		return dateBetween(f, field).Format("2006-01-02 15:04:05")
	case KindGeo:
		return map[string]any{
			"name":      f.City(),
			"latitude":  round6(f.Latitude()),
			"longitude": round6(f.Longitude()),
		}
	case KindEnum:
		return f.RandomString(field.Values)
	default:
		return f.Word()
	}
}

// text builds a sentence of random words no longer than maxChars.
func text(f *gofakeit.Faker, maxChars int) string {
	if maxChars < 5 {
		maxChars = 5
	}
	var b strings.Builder
	for {
		w := f.Word()
		// room for the separating space and the final period
		if b.Len() > 0 && b.Len()+1+len(w)+1 > maxChars {
			break
		}
		if b.Len() == 0 && len(w)+1 > maxChars {
			w = w[:maxChars-1]
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	s := b.String() + "."
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// dateBetween picks a time between January 1 of Min and December 31 of Max (years).
func dateBetween(f *gofakeit.Faker, field Field) time.Time {
	now := time.Now().UTC()
	fromYear := int(field.Min)
	toYear := int(field.Max)
	if fromYear == 0 {
		fromYear = now.Year() - 10
	}
	if toYear == 0 {
		toYear = now.Year()
	}
	from := time.Date(fromYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(toYear, time.December, 31, 23, 59, 59, 0, time.UTC)
	span := to.Unix() - from.Unix()
	if span <= 0 {
		return from
	}
	return time.Unix(from.Unix()+int64(f.IntRange(0, int(span))), 0).UTC()
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
