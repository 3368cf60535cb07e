package oauth

const (
	DefaultBaseURL = "https://api.twitter.com"

	HeaderAuthorization = "Authorization"
	HeaderGuestToken    = "x-guest-token"

	// OAuth Echo delegation headers.
	HeaderAuthServiceProvider            = "X-Auth-Service-Provider"
	HeaderVerifyCredentialsAuthorization = "X-Verify-Credentials-Authorization"

	ParamCallback        = "oauth_callback"
	ParamConsumerKey     = "oauth_consumer_key"
	ParamNonce           = "oauth_nonce"
	ParamSignatureMethod = "oauth_signature_method"
	ParamTimestamp       = "oauth_timestamp"
	ParamToken           = "oauth_token"
	ParamTokenSecret     = "oauth_token_secret"
	ParamVersion         = "oauth_version"
	ParamSignature       = "oauth_signature"
	ParamVerifier        = "oauth_verifier"

	paramScreenName = "screen_name"
	paramUserID     = "user_id"

	SignatureMethod = "HMAC-SHA1"
	Version         = "1.0"

	AuthorizationBasic  = "Basic"
	AuthorizationBearer = "Bearer"

	// OutOfBandCallback requests PIN based authorization.
	OutOfBandCallback = "oob"

	pathRequestToken  = "/oauth/request_token"
	pathAuthorize     = "/oauth/authorize"
	pathAccessToken   = "/oauth/access_token"
	pathAppToken      = "/oauth2/token"
	pathGuestActivate = "/1.1/guest/activate.json"

	VerifyCredentialsPath = "/1.1/account/verify_credentials.json"
)
