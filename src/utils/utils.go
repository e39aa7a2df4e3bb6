// backend/src/utils/utils.go
package utils

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
)

// SendJSONError writes an error message as a JSON body with the given status.
func SendJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RoundFloat rounds a float to the given number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// FormatAmount renders a monetary value with two decimal places.
func FormatAmount(val float64) string {
	return strconv.FormatFloat(RoundFloat(val, 2), 'f', 2, 64)
}
