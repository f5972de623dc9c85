package builtins

import (
	"time"

	"github.com/nexuscrm/formcalc/cache"
	"github.com/nexuscrm/formcalc/errors"
	"github.com/nexuscrm/formcalc/value"
)

// isoDate is the sole date format FormCalc built-ins produce and
// accept: no time-of-day, no timezone.
const isoDate = "2006-01-02"

func parseISODate(v value.Value) (time.Time, error) {
	s, err := wantString(v)
	if err != nil {
		return time.Time{}, errors.New(errors.DateError, "", "date argument must be a String")
	}
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return time.Time{}, errors.New(errors.DateError, "", "malformed ISO date: "+s)
	}
	return t, nil
}

func biYear(args []value.Value) (value.Value, error) {
	t, err := parseISODate(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	return value.Num(float64(t.Year())), nil
}

func biMonth(args []value.Value) (value.Value, error) {
	t, err := parseISODate(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	return value.Num(float64(t.Month())), nil
}

func biDay(args []value.Value) (value.Value, error) {
	t, err := parseISODate(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	return value.Num(float64(t.Day())), nil
}

func biAddDays(args []value.Value) (value.Value, error) {
	t, err := parseISODate(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	n, err := wantNumber(args[1])
	if err != nil {
		return value.NullValue(), err
	}
	return value.Str(t.AddDate(0, 0, int(n)).Format(isoDate)), nil
}

func biGetDiffDays(args []value.Value) (value.Value, error) {
	d1, err := parseISODate(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	d2, err := parseISODate(args[1])
	if err != nil {
		return value.NullValue(), err
	}
	days := d1.Sub(d2).Hours() / 24
	return value.Num(float64(int(days))), nil
}

// biDifferenceInMonths computes whole months between d1 and d2,
// truncating toward zero, using plain time.Time field arithmetic
// rather than a calendar library.
func biDifferenceInMonths(args []value.Value) (value.Value, error) {
	d1, err := parseISODate(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	d2, err := parseISODate(args[1])
	if err != nil {
		return value.NullValue(), err
	}

	neg := false
	if d1.Before(d2) {
		d1, d2 = d2, d1
		neg = true
	}

	months := (d1.Year()-d2.Year())*12 + int(d1.Month()) - int(d2.Month())
	if d1.Day() < d2.Day() {
		months--
	}
	if months < 0 {
		months = 0
	}
	if neg {
		months = -months
	}
	return value.Num(float64(months)), nil
}

// getOutputFrom binds the get_output_from built-in to the engine's
// long-lived result cache, looked up fresh on every call so that
// results from later execute() batches are visible.
func getOutputFrom(results *cache.Store[value.Value]) func(args []value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		name, err := wantString(args[0])
		if err != nil {
			return value.NullValue(), err
		}
		v, ok := results.Get(name)
		if !ok {
			return value.NullValue(), errors.New(errors.UnknownFormula, "", "no result for formula "+name)
		}
		return v, nil
	}
}
