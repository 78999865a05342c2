package verifier

import (
	"context"

	"github.com/spartasim/simdb/internal/objectdb"
	"github.com/spartasim/simdb/internal/schema"
	"github.com/spartasim/simdb/internal/tableref"
)

// Column names for the three verification tables, grounded on
// original_source/sparta/src/ReportVerifier.cpp's
// VerificationSummary::Impl::serializeSummary (lines ~256-284) and the two
// createObjectWithArgs calls in verifyTimeseriesReport/
// verifyNonTimeseriesReport (lines ~126, 182).
const (
	TableResults        = "ReportVerificationResults"
	TableFailureSummary = "ReportVerificationFailureSummaries"
	TableDeepCopyFiles  = "ReportVerificationDeepCopyFiles"
)

// AddVerificationTables realizes the three verification tables into s,
// matching the original's column layout: one row per verified report file
// in ReportVerificationResults, one failure-summary row per failing file in
// ReportVerificationFailureSummaries (linked back by
// ReportVerificationResultID), and one deep
// copy of both file contents per failing file in
// ReportVerificationDeepCopyFiles, so a failure can be replayed without
// re-running the simulation.
func AddVerificationTables(s *schema.Schema) *schema.Schema {
	s.AddTable(TableResults).
		AddColumn("DestFile", schema.String).
		AddColumn("SimInfoID", schema.Int64).
		AddColumn("Passed", schema.Int8).
		AddColumn("IsTimeseries", schema.Int8).
		Done()

	s.AddTable(TableFailureSummary).
		AddColumn("ReportVerificationResultID", schema.FKey, schema.WithFKeyTarget(TableResults)).
		AddColumn("FailureSummary", schema.String).
		Done()

	s.AddTable(TableDeepCopyFiles).
		AddColumn("DestFile", schema.String).
		AddColumn("Expected", schema.Blob).
		AddColumn("Actual", schema.Blob).
		Done()

	return s
}

// Persister writes Verify results through TableRef into the three
// verification tables, the Go equivalent of
// VerificationSummary::Impl::serializeSummary. Each row is written by its
// own CreateObject call, and each call commits in its own safeTransaction;
// the rows written for one file are not committed atomically together.
type Persister struct {
	results  *tableref.TableRef
	failures *tableref.TableRef
	deepCopy *tableref.TableRef
}

// NewPersister resolves the three verification tables against db.
func NewPersister(db *objectdb.ObjectDatabase) (*Persister, error) {
	results, err := tableref.New(db, TableResults)
	if err != nil {
		return nil, err
	}
	failures, err := tableref.New(db, TableFailureSummary)
	if err != nil {
		return nil, err
	}
	deepCopy, err := tableref.New(db, TableDeepCopyFiles)
	if err != nil {
		return nil, err
	}
	return &Persister{results: results, failures: failures, deepCopy: deepCopy}, nil
}

// Persist records one Verify outcome against destFile. simInfoID identifies
// the SimInfo row this run belongs to (0 if none, matching the original's
// fallback when SimInfo doesn't have exactly one record). expected/actual
// are the full comment-stripped-or-not file contents; they are only
// persisted to ReportVerificationDeepCopyFiles when the result failed, since
// a passing verification has nothing worth replaying.
func (p *Persister) Persist(ctx context.Context, destFile string, simInfoID int64, isTimeseries bool, result Result, expected, actual string) error {
	passed := int8(0)
	if result.Passed {
		passed = 1
	}
	isTS := int8(0)
	if isTimeseries {
		isTS = 1
	}

	obj, err := p.results.CreateObject(ctx, map[string]any{
		"DestFile":     destFile,
		"SimInfoID":    simInfoID,
		"Passed":       passed,
		"IsTimeseries": isTS,
	})
	if err != nil {
		return err
	}

	if result.Passed {
		return nil
	}

	if _, err := p.failures.CreateObject(ctx, map[string]any{
		"ReportVerificationResultID": int32(obj.ID),
		"FailureSummary":             result.String(),
	}); err != nil {
		return err
	}

	_, err = p.deepCopy.CreateObject(ctx, map[string]any{
		"DestFile": destFile,
		"Expected": []byte(expected),
		"Actual":   []byte(actual),
	})
	return err
}
