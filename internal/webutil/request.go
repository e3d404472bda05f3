// internal/webutil/request.go
package webutil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"magyar_vizsga_trainer/internal/model"
)

// DecodeJSONBody はリクエストボディをデコードします。
// 未知のフィールドはエラーにする。
func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return model.ErrInvalidInput
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		slog.Default().Warn("Error decoding JSON body", "error", err)
		return model.ErrInvalidInput
	}
	return nil
}
