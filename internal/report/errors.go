package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zvilnymo/casecheck/internal/resilience"
	"github.com/zvilnymo/casecheck/pkg/bitrix"
	"github.com/zvilnymo/casecheck/pkg/drive"
)

// DescribeError renders a collaborator failure as "<code> <message>" when
// the collaborator's error envelope was decoded, or as the error text
// otherwise.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}
	var bxErr *bitrix.APIError
	if errors.As(err, &bxErr) {
		code := bxErr.Code
		if code == "" {
			code = fmt.Sprint(bxErr.StatusCode)
		}
		return strings.TrimSpace(code + " " + bxErr.Description)
	}
	var drvErr *drive.APIError
	if errors.As(err, &drvErr) {
		return strings.TrimSpace(fmt.Sprintf("%d %s", drvErr.StatusCode, drvErr.Message))
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return "service temporarily unavailable"
	}
	return err.Error()
}
