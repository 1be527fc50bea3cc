package pipeline

import "testing"

func validRequest() Request {
	return Request{
		UserID:      "user_1",
		StatementID: "stmt-1",
		DocumentKey: "uploads/stmt-1.pdf",
		Issuer:      "chase",
		CardLast4:   "1234",
	}
}

func TestValidateRequest(t *testing.T) {
	if v := ValidateRequest(validRequest()); !v.Valid {
		t.Fatalf("valid request rejected: %s", v.Reason)
	}
}

func TestValidateRequest_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing userId", func(r *Request) { r.UserID = "" }},
		{"missing statementId", func(r *Request) { r.StatementID = "" }},
		{"missing key", func(r *Request) { r.DocumentKey = "" }},
		{"missing issuer", func(r *Request) { r.Issuer = "" }},
		{"missing cardLast4", func(r *Request) { r.CardLast4 = "" }},
		{"cardLast4 too short", func(r *Request) { r.CardLast4 = "123" }},
		{"cardLast4 too long", func(r *Request) { r.CardLast4 = "12345" }},
		{"cardLast4 non-digit", func(r *Request) { r.CardLast4 = "12a4" }},
		{"key outside uploads", func(r *Request) { r.DocumentKey = "other/stmt.pdf" }},
		{"key not a pdf", func(r *Request) { r.DocumentKey = "uploads/stmt.txt" }},
		{"userId with spaces", func(r *Request) { r.UserID = "user 1" }},
		{"userId with slash", func(r *Request) { r.UserID = "user/1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			v := ValidateRequest(req)
			if v.Valid {
				t.Error("expected rejection, got valid")
			}
			if v.Reason == "" {
				t.Error("rejection must carry a reason")
			}
		})
	}
}

func TestValidateRequest_UserIDCharset(t *testing.T) {
	for _, id := range []string{"alice", "user_1", "user-1", "ABC123"} {
		req := validRequest()
		req.UserID = id
		if v := ValidateRequest(req); !v.Valid {
			t.Errorf("userId %q rejected: %s", id, v.Reason)
		}
	}
}
