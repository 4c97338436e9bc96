/*
Package authsdk is a client for the grimoire auth API.

# SDKClient vs Session

SDKClient performs single calls. Each method maps to one route and returns
an *APIError for any non-2xx response:

	client := authsdk.NewSDKClient("https://grimoire.example.com")

	pair, err := client.Register(ctx, "ada@example.com", "correct horse")
	pair, err = client.Refresh(ctx, pair.RefreshToken)

Session keeps a credential pair fresh for a long-lived caller:

	session, err := client.AuthenticateWithPassword(ctx, "ada@example.com", "correct horse")
	me, err := session.Me(ctx)

# Refresh Coalescing

Refresh tokens are single use: the server rotates the presented token and
rejects any second presentation. Session.Refresh therefore coalesces every
concurrent caller that observed the same refresh token into one request, and
all of them receive its result. Session.Do and the Session helpers refresh
once and retry once when the access token is rejected with a 401.

# Validation

The request types are shared with the server. CredentialsRequest.Validate
applies the registration rules and ValidateLogin only checks that both fields
are present:

	if errs := (authsdk.CredentialsRequest{Email: email, Password: pw}).Validate(); errs != nil {
		for field, reason := range errs {
			fmt.Printf("%s: %s\n", field, reason)
		}
	}

# Thread Safety

Sessions are safe for concurrent use. Multiple goroutines can share a single
Session and make authenticated requests concurrently.
*/
package authsdk
