package env

// Environment variable keys used throughout the codebase
const (
	KeyCloudflareAPIToken  = "CLOUDFLARE_API_TOKEN"
	KeyCloudflareAccountID = "CLOUDFLARE_ACCOUNT_ID"
	KeyTunnelDomain        = "TUNNEL_DOMAIN"
	KeyTunnelSubdomain     = "TUNNEL_SUBDOMAIN"
	KeyPort                = "PORT"
	KeyGitHubRepo          = "GITHUB_REPO"
	KeySecretBackend       = "TUNNEL_SECRET_BACKEND"
	KeyGitHubToken         = "GITHUB_TOKEN"

	// KeyCloudflareAPIBaseURL points the client at another API root.
	KeyCloudflareAPIBaseURL = "CLOUDFLARE_API_BASE_URL"
)
