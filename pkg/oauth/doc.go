// Package oauth holds Twitter credentials and the services that obtain them.
//
// Token is a tagged union over OAuth1a user tokens, OAuth2 application tokens
// and guest tokens. Signer implements OAuth1a HMAC-SHA1 request signing.
// OAuth1aService drives the request token, authorize and access token steps of
// user sign-in; OAuth2Service performs the client_credentials grant and guest
// token activation.
package oauth
