package proposal

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Strob0t/ProposalForge/internal/domain"
)

// Mode selects the rule set applied by Validate.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

type modeKey struct{}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterStructValidationCtx(requestRules, Request{})
		v.RegisterStructValidationCtx(installmentRules, InstallmentInput{})
		validate = v
	})
	return validate
}

// requestRules covers the cross-field requirements tags cannot express.
func requestRules(ctx context.Context, sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(Request)
	if !ok {
		return
	}
	mode, _ := ctx.Value(modeKey{}).(Mode)

	if mode == ModeCreate && strings.TrimSpace(req.AgencyID) == "" {
		sl.ReportError(req.AgencyID, "agency_id", "AgencyID", "required", "")
	}

	switch {
	case mode == ModeUpdate:
		if req.UnitID == "" {
			sl.ReportError(req.UnitID, "unit_id", "UnitID", "required", "")
		}
	case req.UnitID == "":
		addr := req.UnitAddress()
		if addr.Number == "" {
			sl.ReportError(addr.Number, "unit.number", "Unit.Number", "required", "")
		}
		if addr.Tower == "" {
			sl.ReportError(addr.Tower, "unit.tower", "Unit.Tower", "required", "")
		}
		if addr.Floor == "" {
			sl.ReportError(addr.Floor, "unit.floor", "Unit.Floor", "required", "")
		}
	}

	if req.PrimaryContact.Omitted() {
		sl.ReportError(req.PrimaryContact.Name, "primary_contact.name", "PrimaryContact.Name", "required", "")
	}
}

func installmentRules(_ context.Context, sl validator.StructLevel) {
	in, ok := sl.Current().Interface().(InstallmentInput)
	if !ok {
		return
	}
	checkAmount(sl, in.AmountPerInstallment, "amount_per_installment", "AmountPerInstallment")
	checkAmount(sl, in.TotalAmount, "total_amount", "TotalAmount")
}

// checkAmount rejects negative amounts and amounts finer than a cent, which
// NUMERIC(14,2) would otherwise round on insert.
func checkAmount(sl validator.StructLevel, d decimal.Decimal, field, structField string) {
	switch {
	case d.IsNegative():
		sl.ReportError(d, field, structField, "nonnegative", "")
	case !d.Equal(d.Round(2)):
		sl.ReportError(d, field, structField, "scale", "")
	}
}

// Validate checks req under the given mode. Every offending field is
// reported in one *domain.ValidationError.
func (r *Request) Validate(mode Mode) error {
	ctx := context.WithValue(context.Background(), modeKey{}, mode)
	err := getValidator().StructCtx(ctx, r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	verr := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		name := fieldPath(fe)
		if fe.Tag() == "required" {
			verr.Missing = append(verr.Missing, name)
		} else {
			verr.Invalid = append(verr.Invalid, name)
		}
	}
	return verr
}

// fieldPath drops the root struct name from the namespace, so
// "Request.installments[0].start_date" becomes "installments[0].start_date".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}
