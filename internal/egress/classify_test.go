package egress

import "testing"

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		want   Disposition
	}{
		{200, DispositionSuccess},
		{201, DispositionSuccess},
		{299, DispositionSuccess},
		{429, DispositionTransient},
		{500, DispositionTransient},
		{503, DispositionTransient},
		{400, DispositionPermanent},
		{401, DispositionPermanent},
		{404, DispositionPermanent},
	}
	for _, c := range cases {
		if got := ClassifyStatus(c.status); got != c.want {
			t.Errorf("ClassifyStatus(%d) = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	if n, ok := RetryAfterSeconds(""); ok || n != 0 {
		t.Fatalf("empty header: got (%d, %v), want (0, false)", n, ok)
	}
	if n, ok := RetryAfterSeconds("30"); !ok || n != 30 {
		t.Fatalf("numeric header: got (%d, %v), want (30, true)", n, ok)
	}
	if n, ok := RetryAfterSeconds("-5"); ok || n != 0 {
		t.Fatalf("negative header: got (%d, %v), want (0, false)", n, ok)
	}
	if n, ok := RetryAfterSeconds("Wed, 21 Oct 2026 07:28:00 GMT"); ok || n != 0 {
		t.Fatalf("HTTP-date header: got (%d, %v), want (0, false)", n, ok)
	}
}
