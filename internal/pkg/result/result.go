// internal/pkg/result/result.go
package result

import (
	"encoding/json"
	"net/http"

	"sky-takeout/internal/pkg/logger"
)

// Result 是所有 HTTP 接口统一的返回结构，code 为 1 表示成功
type Result struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

// OK 写出成功响应
func OK(w http.ResponseWriter, r *http.Request, data any) {
	write(w, r, http.StatusOK, Result{Code: 1, Data: data})
}

// Fail 写出失败响应
func Fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	write(w, r, status, Result{Code: 0, Msg: msg})
}

func write(w http.ResponseWriter, r *http.Request, status int, body Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}
