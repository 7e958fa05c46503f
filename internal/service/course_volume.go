package service

import (
	"fmt"

	"github.com/noah-isme/course-vacancy-api/internal/models"
)

// AggregatedVolumes is the per-period sum of assigned hours for one course.
type AggregatedVolumes struct {
	Vol1 float64
	Vol2 float64
	// SourceConflict is set when both attribution sources carry non-zero totals
	// that disagree for a period. Precedence still applies; the flag surfaces the
	// discrepancy instead of hiding it.
	SourceConflict bool
}

// AggregateVolumes sums assigned hours per period across the two historical
// attribution sources. Per period, the hour_attribution total wins when
// non-zero, otherwise the legacy course_assignment total is used. Hours are
// never summed across both sources.
func AggregateVolumes(assignments []models.Assignment) AggregatedVolumes {
	var hourV1, hourV2, legacyV1, legacyV2 float64
	var hasHour, hasLegacy bool
	for _, a := range assignments {
		switch a.Source {
		case models.SourceCourseAssignment:
			legacyV1 += a.Vol1Hours
			legacyV2 += a.Vol2Hours
			hasLegacy = true
		default:
			hourV1 += a.Vol1Hours
			hourV2 += a.Vol2Hours
			hasHour = true
		}
	}

	agg := AggregatedVolumes{Vol1: hourV1, Vol2: hourV2}
	if hourV1 <= 0 {
		agg.Vol1 = legacyV1
	}
	if hourV2 <= 0 {
		agg.Vol2 = legacyV2
	}
	if hasHour && hasLegacy && (hourV1 != legacyV1 || hourV2 != legacyV2) {
		agg.SourceConflict = true
	}
	return agg
}

// RequiredVolumes resolves the required per-period totals: the vol{1,2}_total
// alias fields take precedence over volume_total_vol{1,2}; missing fields
// default to zero.
func RequiredVolumes(course models.Course) (vol1, vol2 float64) {
	vol1 = firstVolume(course.Vol1Total, course.VolumeTotalVol1)
	vol2 = firstVolume(course.Vol2Total, course.VolumeTotalVol2)
	return vol1, vol2
}

func firstVolume(candidates ...*float64) float64 {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return 0
}

// ValidateDistribution compares assigned hours against the required volume.
// A course with no assignments at all is trivially valid: it is unassigned,
// not miscounted. Equality is exact; there is no tolerance band.
func ValidateDistribution(course models.Course, assignments []models.Assignment) models.DistributionVerdict {
	if len(assignments) == 0 {
		return models.DistributionVerdict{IsValid: true, Message: "no attribution"}
	}

	agg := AggregateVolumes(assignments)
	reqV1, reqV2 := RequiredVolumes(course)
	if agg.Vol1 == reqV1 && agg.Vol2 == reqV2 {
		return models.DistributionVerdict{IsValid: true}
	}
	return models.DistributionVerdict{
		IsValid: false,
		Message: fmt.Sprintf("vol1: %s/%sh, vol2: %s/%sh",
			formatHours(agg.Vol1), formatHours(reqV1),
			formatHours(agg.Vol2), formatHours(reqV2)),
	}
}

// UnassignedRemainder materializes the display-only pseudo-assignment carrying
// the positive shortfall per period. Returns nil when nothing is missing.
func UnassignedRemainder(course models.Course, assignments []models.Assignment) *models.Assignment {
	agg := AggregateVolumes(assignments)
	reqV1, reqV2 := RequiredVolumes(course)

	missV1 := reqV1 - agg.Vol1
	missV2 := reqV2 - agg.Vol2
	if missV1 <= 0 && missV2 <= 0 {
		return nil
	}
	if missV1 < 0 {
		missV1 = 0
	}
	if missV2 < 0 {
		missV2 = 0
	}
	return &models.Assignment{
		CourseID:  course.ID,
		Source:    models.SourceHourAttribution,
		Vol1Hours: missV1,
		Vol2Hours: missV2,
	}
}

func formatHours(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
