package session

import "time"

// ElapsedMinutes returns whole minutes between start and end, floored.
// A negative interval (clock skew) clamps to zero.
func ElapsedMinutes(start, end time.Time) int64 {
	if end.Before(start) {
		return 0
	}
	return int64(end.Sub(start) / time.Minute)
}

// CostCents prices a session: minutes/60 of the hourly rate, rounded
// half-up to whole cents.
func CostCents(minutes, hourlyRateCents int64) int64 {
	if minutes <= 0 || hourlyRateCents <= 0 {
		return 0
	}
	return (minutes*hourlyRateCents + 30) / 60
}

// CoinsEarned computes the AntiCoin reward for a session. The default
// cafe rate of 1 yields one coin per minute.
func CoinsEarned(minutes, coinRate int64) int64 {
	if minutes <= 0 || coinRate <= 0 {
		return 0
	}
	return minutes * coinRate
}
