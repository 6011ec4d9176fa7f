package services

import (
	"grant-governance/internal/models"
)

// EvaluateElectionState returns the state an election is in at now (unix
// seconds). The result never ranks below the stored state.
func EvaluateElectionState(e *models.Election, now int64) models.ElectionState {
	target := models.ElectionStateRegistration
	switch elapsed := now - e.StartedAt; {
	case elapsed >= e.RegistrationPeriod+e.VotingPeriod:
		target = models.ElectionStateClosed
	case elapsed >= e.RegistrationPeriod:
		target = models.ElectionStateVoting
	}
	if target.Rank() < e.State.Rank() {
		return e.State
	}
	return target
}

// DefaultElectionSettings returns the settings a term starts with
func DefaultElectionSettings(term models.ElectionTerm) models.ElectionSettings {
	const day = int64(24 * 60 * 60)
	settings := models.ElectionSettings{
		UseOracle: true,
		Enabled:   true,
		ShareType: models.ShareTypeEqualWeight,
	}
	switch term {
	case models.ElectionTermMonth:
		settings.Ranking, settings.Awardees = 3, 1
		settings.RegistrationPeriod, settings.VotingPeriod, settings.CooldownPeriod = 7*day, 7*day, 21*day
	case models.ElectionTermQuarter:
		settings.Ranking, settings.Awardees = 5, 2
		settings.RegistrationPeriod, settings.VotingPeriod, settings.CooldownPeriod = 14*day, 14*day, 83*day
	case models.ElectionTermYear:
		settings.Ranking, settings.Awardees = 7, 3
		settings.RegistrationPeriod, settings.VotingPeriod, settings.CooldownPeriod = 30*day, 30*day, 358*day
	}
	return settings
}

// ValidateElectionSettings checks the relations between settings fields
func ValidateElectionSettings(settings models.ElectionSettings) error {
	switch {
	case settings.Awardees < 1:
		return ErrInvalidConfiguration
	case settings.Ranking < settings.Awardees:
		return ErrInvalidConfiguration
	case settings.RegistrationPeriod <= 0, settings.VotingPeriod <= 0, settings.CooldownPeriod < 0:
		return ErrInvalidConfiguration
	case settings.BondAmount.IsNegative(), settings.FinalizationIncentive.IsNegative():
		return ErrInvalidConfiguration
	case settings.BondRequired && !settings.BondAmount.IsPositive():
		return ErrInvalidConfiguration
	case settings.ShareType != models.ShareTypeEqualWeight && settings.ShareType != models.ShareTypeDynamicWeight:
		return ErrInvalidConfiguration
	}
	return nil
}
