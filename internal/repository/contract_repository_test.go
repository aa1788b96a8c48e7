package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/evergrid/contracts-service/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func TestContractFilterClauses(t *testing.T) {
	dateFrom := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)

	t.Run("empty filter has no clause", func(t *testing.T) {
		where, args := contractFilterClauses(model.ContractFilter{})
		if where != "" || len(args) != 0 {
			t.Fatalf("expected empty clause, got %q with %d args", where, len(args))
		}
	})

	t.Run("no_dates=true filters for null dates", func(t *testing.T) {
		where, args := contractFilterClauses(model.ContractFilter{NoDates: boolPtr(true)})
		if where != "WHERE date IS NULL" {
			t.Fatalf("unexpected clause %q", where)
		}
		if len(args) != 0 {
			t.Fatalf("expected no args, got %d", len(args))
		}
	})

	t.Run("no_dates=false filters for present dates", func(t *testing.T) {
		where, _ := contractFilterClauses(model.ContractFilter{NoDates: boolPtr(false)})
		if where != "WHERE date IS NOT NULL" {
			t.Fatalf("unexpected clause %q", where)
		}
	})

	t.Run("date_from adds an inclusive floor", func(t *testing.T) {
		where, args := contractFilterClauses(model.ContractFilter{DateFrom: &dateFrom})
		if where != "WHERE date >= ?" {
			t.Fatalf("unexpected clause %q", where)
		}
		if len(args) != 1 || !args[0].(time.Time).Equal(dateFrom) {
			t.Fatalf("unexpected args %v", args)
		}
	})

	t.Run("conditions compose conjunctively", func(t *testing.T) {
		where, args := contractFilterClauses(model.ContractFilter{
			NoDates:  boolPtr(false),
			DateFrom: &dateFrom,
		})
		if where != "WHERE date IS NOT NULL AND date >= ?" {
			t.Fatalf("unexpected clause %q", where)
		}
		if len(args) != 1 {
			t.Fatalf("expected one arg, got %d", len(args))
		}
	})
}

func TestContractOrderClause(t *testing.T) {
	// Postgres sorts ASC NULLS LAST by default; both overrides must be
	// explicit for the listing contract to hold.
	if !strings.Contains(contractOrderClause, "date ASC NULLS FIRST") {
		t.Fatalf("order clause must put undated contracts first: %q", contractOrderClause)
	}
	if !strings.Contains(contractOrderClause, "start_at_time ASC NULLS LAST") {
		t.Fatalf("order clause must trail missing start times: %q", contractOrderClause)
	}
	if !strings.Contains(contractOrderClause, "id ASC") {
		t.Fatalf("order clause needs a deterministic tiebreak: %q", contractOrderClause)
	}
}

func TestContractUpdateClauses(t *testing.T) {
	t.Run("only set fields are assigned", func(t *testing.T) {
		stage := model.FormStageDocuments
		sets, args := contractUpdateClauses(model.ContractUpdate{
			City:      strPtr("Troy"),
			FormStage: &stage,
		})

		joined := strings.Join(sets, ", ")
		if !strings.Contains(joined, "city = ?") || !strings.Contains(joined, "form_stage = ?") {
			t.Fatalf("missing assignments in %q", joined)
		}
		if strings.Contains(joined, "zip") || strings.Contains(joined, "date =") {
			t.Fatalf("unset fields leaked into %q", joined)
		}
		// city, form_stage; updated_at uses NOW() and carries no arg
		if len(args) != 2 {
			t.Fatalf("expected 2 args, got %d", len(args))
		}
	})

	t.Run("updated_at is always refreshed", func(t *testing.T) {
		sets, _ := contractUpdateClauses(model.ContractUpdate{City: strPtr("Troy")})
		if sets[len(sets)-1] != "updated_at = NOW()" {
			t.Fatalf("expected trailing updated_at refresh, got %v", sets)
		}
	})

	t.Run("time fields cast to time", func(t *testing.T) {
		sets, args := contractUpdateClauses(model.ContractUpdate{
			StartAtTime: strPtr("09:00:00"),
			EndAtTime:   strPtr("10:30:00"),
		})
		joined := strings.Join(sets, ", ")
		if !strings.Contains(joined, "start_at_time = ?::time") || !strings.Contains(joined, "end_at_time = ?::time") {
			t.Fatalf("expected time casts in %q", joined)
		}
		if len(args) != 2 {
			t.Fatalf("expected 2 args, got %d", len(args))
		}
	})
}
