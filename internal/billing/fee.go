package billing

import "time"

// FractionMinutes is the billing granularity: stays are charged in fixed
// quarter-hour fractions of the hourly rate.
const FractionMinutes = 15

// fractionsPerHour converts a fraction count into hourly-rate multiples.
const fractionsPerHour = 60 / FractionMinutes

// Charge is the billing outcome for a completed stay. Amounts are whole
// currency units; there are no cents in this tariff.
type Charge struct {
	Minutes   int
	Fractions int
	Amount    int64
}

// Elapsed returns the stay duration in whole minutes, rounding any partial
// minute up. A non-positive interval yields zero minutes.
func Elapsed(entry, exit time.Time) int {
	delta := exit.Sub(entry)
	if delta <= 0 {
		return 0
	}
	minutes := delta / time.Minute
	if delta%time.Minute != 0 {
		minutes++
	}
	return int(minutes)
}

// Fractions buckets elapsed minutes into quarter-hour fractions, rounding up.
// Every stay is charged at least one fraction, however short.
func Fractions(minutes int) int {
	if minutes <= FractionMinutes {
		return 1
	}
	fractions := minutes / FractionMinutes
	if minutes%FractionMinutes != 0 {
		fractions++
	}
	return fractions
}

// Amount computes the charge for the given number of elapsed minutes at an
// hourly rate. Rounding is always toward the business: the fraction count is
// rounded up and so is the final division.
func Amount(hourlyRate int64, minutes int) int64 {
	if hourlyRate <= 0 {
		return 0
	}
	fractions := int64(Fractions(minutes))
	return ceilDiv(fractions*hourlyRate, fractionsPerHour)
}

// Quote computes the full billing outcome for a stay between entry and exit.
func Quote(entry, exit time.Time, hourlyRate int64) Charge {
	minutes := Elapsed(entry, exit)
	return Charge{
		Minutes:   minutes,
		Fractions: Fractions(minutes),
		Amount:    Amount(hourlyRate, minutes),
	}
}

func ceilDiv(numerator, denominator int64) int64 {
	return (numerator + denominator - 1) / denominator
}
