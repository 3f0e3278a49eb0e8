// Package parsers converts raw device JSON day records into ingestable
// tuples. One parser exists per wearable data shape; the ingestion core only
// ever sees the parsed records.
package parsers

import (
	"fmt"
	"time"

	"vitalstore/internal/services"

	"github.com/tidwall/gjson"
)

// Parser extracts records for one user from a single day's raw JSON record.
type Parser func(day gjson.Result, userID int64) (Result, error)

// Result accumulates the three record kinds a parser can produce.
type Result struct {
	Samples []services.SampleRecord
	Zones   []services.ZoneRecord
	Sleep   []services.SleepRecord
}

func (r *Result) merge(other Result) {
	r.Samples = append(r.Samples, other.Samples...)
	r.Zones = append(r.Zones, other.Zones...)
	r.Sleep = append(r.Sleep, other.Sleep...)
}

// ByDeviceMetric maps a device export key to the parsers that consume it.
// Heart rate day records carry both the intraday stream and the zone
// definitions, hence two parsers for one key.
var ByDeviceMetric = map[string][]Parser{
	"intraday_heart_rate":         {ParseHeartRate, ParseZones},
	"intraday_spo2":               {ParseSpO2},
	"intraday_breath_rate":        {ParseBreathingRate},
	"intraday_active_zone_minute": {ParseActiveZoneMinutes},
	"intraday_activity":           {ParseActivity},
	"intraday_hrv":                {ParseHRV},
	"sleep":                       {ParseSleep},
}

// Device timestamps carry no zone; they are stored as UTC.
const (
	deviceTimeLayout = "2006-01-02T15:04:05"
	deviceDateLayout = "2006-01-02"
)

func parseDeviceTime(value string) (time.Time, error) {
	t, err := time.ParseInLocation(deviceTimeLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse device timestamp %q: %w", value, err)
	}
	return t, nil
}

func parseDeviceDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(deviceDateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse device date %q: %w", value, err)
	}
	return t, nil
}

// ParseHeartRate extracts the per-second intraday heart rate stream.
func ParseHeartRate(day gjson.Result, userID int64) (Result, error) {
	var result Result
	heartDay := day.Get("heart_rate_day.0")
	dateStr := heartDay.Get("activities-heart.0.dateTime").String()
	dataset := heartDay.Get("activities-heart-intraday.dataset")
	if dateStr == "" || !dataset.Exists() {
		return result, nil
	}

	var firstErr error
	dataset.ForEach(func(_, point gjson.Result) bool {
		ts, err := parseDeviceTime(dateStr + "T" + point.Get("time").String())
		if err != nil {
			firstErr = err
			return false
		}
		result.Samples = append(result.Samples, services.SampleRecord{
			Time:       ts,
			UserID:     userID,
			MetricName: "intraday_heart_rate",
			Value:      point.Get("value").Float(),
		})
		return true
	})
	return result, firstErr
}

// ParseZones extracts the heart-rate zone definitions from a heart rate day
// record. Only the boundaries are kept, not minutes spent in each zone.
func ParseZones(day gjson.Result, userID int64) (Result, error) {
	var result Result
	activitiesHeart := day.Get("heart_rate_day.0.activities-heart.0")
	dateStr := activitiesHeart.Get("dateTime").String()
	zones := activitiesHeart.Get("value.heartRateZones")
	if dateStr == "" || !zones.Exists() {
		return result, nil
	}

	date, err := parseDeviceDate(dateStr)
	if err != nil {
		return result, err
	}
	zones.ForEach(func(_, zone gjson.Result) bool {
		minVal, maxVal := zone.Get("min"), zone.Get("max")
		if !minVal.Exists() || !maxVal.Exists() {
			return true
		}
		result.Zones = append(result.Zones, services.ZoneRecord{
			Date:     date,
			UserID:   userID,
			ZoneName: zone.Get("name").String(),
			MinHR:    int(minVal.Int()),
			MaxHR:    int(maxVal.Int()),
		})
		return true
	})
	return result, nil
}

// ParseSleep extracts the main-sleep nightly summary.
func ParseSleep(day gjson.Result, userID int64) (Result, error) {
	var result Result
	var firstErr error
	day.Get("sleep").ForEach(func(_, log gjson.Result) bool {
		if !log.Get("isMainSleep").Bool() {
			return true
		}
		dateStr := log.Get("dateOfSleep").String()
		minutes := log.Get("minutesAsleep")
		if dateStr == "" || !minutes.Exists() {
			return true
		}
		date, err := parseDeviceDate(dateStr)
		if err != nil {
			firstErr = err
			return false
		}
		record := services.SleepRecord{
			Date:          date,
			UserID:        userID,
			MinutesAsleep: minutes.Float(),
		}
		if eff := log.Get("efficiency"); eff.Exists() {
			v := eff.Float()
			record.Efficiency = &v
		}
		result.Sleep = append(result.Sleep, record)
		return true
	})
	return result, firstErr
}

// ParseSpO2 extracts the per-minute SpO2 stream.
func ParseSpO2(day gjson.Result, userID int64) (Result, error) {
	var result Result
	if day.Get("dateTime").String() == "" {
		return result, nil
	}

	var firstErr error
	day.Get("minutes").ForEach(func(_, point gjson.Result) bool {
		ts, err := parseDeviceTime(point.Get("minute").String())
		if err != nil {
			firstErr = err
			return false
		}
		result.Samples = append(result.Samples, services.SampleRecord{
			Time:       ts,
			UserID:     userID,
			MetricName: "intraday_spo2",
			Value:      point.Get("value").Float(),
		})
		return true
	})
	return result, firstErr
}

// ParseBreathingRate extracts the four per-sleep-stage daily breathing rates.
func ParseBreathingRate(day gjson.Result, userID int64) (Result, error) {
	var result Result
	var firstErr error
	stages := map[string]string{
		"breathing_rate_deep":  "deepSleepSummary",
		"breathing_rate_rem":   "remSleepSummary",
		"breathing_rate_light": "lightSleepSummary",
		"breathing_rate_full":  "fullSleepSummary",
	}
	day.Get("br").ForEach(func(_, record gjson.Result) bool {
		dateStr := record.Get("dateTime").String()
		value := record.Get("value")
		if dateStr == "" || !value.Exists() {
			return true
		}
		ts, err := parseDeviceTime(dateStr + "T00:00:00")
		if err != nil {
			firstErr = err
			return false
		}
		for metric, stage := range stages {
			rate := value.Get(stage + ".breathingRate")
			if !rate.Exists() {
				continue
			}
			result.Samples = append(result.Samples, services.SampleRecord{
				Time:       ts,
				UserID:     userID,
				MetricName: metric,
				Value:      rate.Float(),
			})
		}
		return true
	})
	return result, firstErr
}

// ParseActivity extracts the daily activity summary as a single sample.
func ParseActivity(day gjson.Result, userID int64) (Result, error) {
	var result Result
	dateStr := day.Get("dateTime").String()
	value := day.Get("value")
	if dateStr == "" || !value.Exists() {
		return result, nil
	}
	ts, err := parseDeviceTime(dateStr + "T00:00:00")
	if err != nil {
		return result, err
	}
	result.Samples = append(result.Samples, services.SampleRecord{
		Time:       ts,
		UserID:     userID,
		MetricName: "intraday_activity",
		Value:      value.Float(),
	})
	return result, nil
}

// ParseActiveZoneMinutes extracts the per-minute AZM breakdown into four
// metric streams.
func ParseActiveZoneMinutes(day gjson.Result, userID int64) (Result, error) {
	var result Result
	var firstErr error
	azmFields := map[string]string{
		"azm_fat_burn": "fatBurnActiveZoneMinutes",
		"azm_cardio":   "cardioActiveZoneMinutes",
		"azm_peak":     "peakActiveZoneMinutes",
		"azm_total":    "activeZoneMinutes",
	}
	day.Get("activities-active-zone-minutes-intraday").ForEach(func(_, record gjson.Result) bool {
		dateStr := record.Get("dateTime").String()
		if dateStr == "" {
			return true
		}
		record.Get("minutes").ForEach(func(_, point gjson.Result) bool {
			minuteStr := point.Get("minute").String()
			value := point.Get("value")
			if minuteStr == "" || !value.Exists() {
				return true
			}
			ts, err := parseDeviceTime(dateStr + "T" + minuteStr)
			if err != nil {
				firstErr = err
				return false
			}
			for metric, field := range azmFields {
				v := value.Get(field)
				if !v.Exists() {
					continue
				}
				result.Samples = append(result.Samples, services.SampleRecord{
					Time:       ts,
					UserID:     userID,
					MetricName: metric,
					Value:      v.Float(),
				})
			}
			return true
		})
		return firstErr == nil
	})
	return result, firstErr
}

// ParseHRV extracts the per-minute HRV component streams.
func ParseHRV(day gjson.Result, userID int64) (Result, error) {
	var result Result
	var firstErr error
	hrvFields := map[string]string{
		"hrv_rmssd":    "rmssd",
		"hrv_coverage": "coverage",
		"hrv_hf":       "hf",
		"hrv_lf":       "lf",
	}
	day.Get("hrv").ForEach(func(_, record gjson.Result) bool {
		record.Get("minutes").ForEach(func(_, point gjson.Result) bool {
			minuteStr := point.Get("minute").String()
			value := point.Get("value")
			if minuteStr == "" || !value.Exists() {
				return true
			}
			ts, err := parseDeviceTime(minuteStr)
			if err != nil {
				firstErr = err
				return false
			}
			for metric, field := range hrvFields {
				v := value.Get(field)
				if !v.Exists() {
					continue
				}
				result.Samples = append(result.Samples, services.SampleRecord{
					Time:       ts,
					UserID:     userID,
					MetricName: metric,
					Value:      v.Float(),
				})
			}
			return true
		})
		return firstErr == nil
	})
	return result, firstErr
}

// ParseDay runs every parser registered for a device metric against a single
// day record and merges their output.
func ParseDay(deviceMetric string, day gjson.Result, userID int64) (Result, error) {
	parsers, ok := ByDeviceMetric[deviceMetric]
	if !ok {
		return Result{}, fmt.Errorf("no parser registered for device metric %q", deviceMetric)
	}
	var merged Result
	for _, parse := range parsers {
		out, err := parse(day, userID)
		if err != nil {
			return merged, err
		}
		merged.merge(out)
	}
	return merged, nil
}
