/*
Package authsdk is a Go client for the memoauth authentication service.

# SDKClient vs Session

  - SDKClient maps one method to one endpoint. Tokens are passed in explicitly.
  - Session holds a token pair and refreshes the access token before it expires.

Log in and use the raw client:

	client := authsdk.NewSDKClient("http://localhost:8080")

	pair, err := client.Login(ctx, "a@b.com", "Correct1!")
	me, err := client.Me(ctx, pair.AccessToken)
	next, err := client.Refresh(ctx, pair.RefreshToken)

Or let a Session track the pair:

	session, err := client.LoginSession(ctx, "a@b.com", "Correct1!")
	me, err := session.Me(ctx)
	err = session.Logout(ctx)

Refresh tokens are single use. A Session swaps in the new pair after every
refresh, so sharing one Session between goroutines is safe, but sharing its
refresh token outside the Session is not.

# Errors

Every non-2xx response is returned as *APIError carrying the HTTP status and
the envelope's error code:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
		// log in again
	}
*/
package authsdk
