package config

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	perrors "abuse-rec/internal/platform/errors"
	"abuse-rec/internal/platform/logx"
	"abuse-rec/internal/platform/netutil"
)

const (
	DefaultTimeoutMS  = 15000
	DefaultRDAPBase   = "https://rdap.org"
	DefaultAltAPIBase = "https://api.hackertarget.com/whois/"
	DefaultScrapeBase = "https://www.whois.com/whois/"
	DefaultUserAgent  = "abuse-rec/1.0"
	DefaultScanRate   = 20
)

type Config struct {
	Domain        string
	TimeoutMS     int
	Verbosity     int
	LogJSON       bool
	WhoisServer   string
	RDAPBase      string
	RDAPBootstrap bool
	AltAPIBase    string
	ScrapeBase    string
	Disable       []string
	Resolver      string
	Subdomains    bool
	ScanRate      float64
	Serve         string
	UserAgent     string
	Proxy         string
	ProxyCACert   string
}

// Timeout devuelve el timeout por fuente.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

type fileConfig struct {
	Domain        *string     `json:"domain" yaml:"domain"`
	TimeoutMS     *int        `json:"timeout" yaml:"timeout"`
	Verbosity     *int        `json:"verbosity" yaml:"verbosity"`
	LogJSON       *bool       `json:"log_json" yaml:"log_json"`
	WhoisServer   *string     `json:"whois_server" yaml:"whois_server"`
	RDAPBase      *string     `json:"rdap_base" yaml:"rdap_base"`
	RDAPBootstrap *bool       `json:"rdap_bootstrap" yaml:"rdap_bootstrap"`
	AltAPIBase    *string     `json:"altapi_base" yaml:"altapi_base"`
	ScrapeBase    *string     `json:"scrape_base" yaml:"scrape_base"`
	Disable       *stringList `json:"disable" yaml:"disable"`
	Resolver      *string     `json:"resolver" yaml:"resolver"`
	Subdomains    *bool       `json:"subdomains" yaml:"subdomains"`
	ScanRate      *float64    `json:"scan_rate" yaml:"scan_rate"`
	Serve         *string     `json:"serve" yaml:"serve"`
	UserAgent     *string     `json:"user_agent" yaml:"user_agent"`
	Proxy         *string     `json:"proxy" yaml:"proxy"`
	ProxyCACert   *string     `json:"proxy_ca" yaml:"proxy_ca"`
}

type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = nil
		return nil
	}

	switch trimmed[0] {
	case '[':
		var aux []string
		if err := json.Unmarshal(trimmed, &aux); err != nil {
			return err
		}
		*s = cleanStringSlice(aux)
		return nil
	case '"':
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*s = cleanStringSlice(strings.Split(single, ","))
		return nil
	default:
		return errors.New("disable debe ser un string o una lista")
	}
}

func (s *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		aux := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			aux = append(aux, node.Value)
		}
		*s = cleanStringSlice(aux)
		return nil
	case yaml.ScalarNode:
		*s = cleanStringSlice(strings.Split(value.Value, ","))
		return nil
	case yaml.MappingNode, yaml.DocumentNode:
		return errors.New("disable debe ser un string o una lista")
	default:
		*s = nil
		return nil
	}
}

// Parse lee los flags de args (sin el nombre del programa) y superpone el
// archivo de configuración sobre los flags que no se fijaron explícitamente.
// El dominio también puede pasarse como primer argumento posicional.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("abuse-rec", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", "", "Ruta a un archivo de configuración (YAML o JSON)")
	domain := fs.String("domain", "", "Dominio a consultar (ej: example.com)")
	timeout := fs.Int("timeout", DefaultTimeoutMS, "Timeout por fuente (milisegundos)")
	verbosity := fs.Int("v", 0, "Verbosity (0=info,1=info,2=debug,3=trace)")
	logJSON := fs.Bool("log-json", false, "Logs en formato JSON")
	whoisServer := fs.String("whois-server", "", "Servidor WHOIS fijo (host o host:puerto) en lugar de la tabla por TLD")
	rdapBase := fs.String("rdap-base", DefaultRDAPBase, "URL base RDAP")
	rdapBootstrap := fs.Bool("rdap-bootstrap", false, "Resolver el servidor RDAP autoritativo mediante el bootstrap de IANA")
	altAPIBase := fs.String("altapi-base", DefaultAltAPIBase, "URL base del proxy WHOIS en texto plano")
	scrapeBase := fs.String("scrape-base", DefaultScrapeBase, "URL base de la página whois.com")
	disable := fs.String("disable", "", "Fuentes desactivadas, CSV (structured,rawProtocol,alt-api,scraped)")
	resolver := fs.String("resolver", "", "Servidor DNS host:puerto (default: /etc/resolv.conf)")
	subdomains := fs.Bool("subdomains", false, "Escanear subdominios comunes del dominio raíz")
	scanRate := fs.Float64("scan-rate", DefaultScanRate, "Consultas DNS por segundo del escaneo (0 = sin límite)")
	serve := fs.String("serve", "", "Dirección de escucha de la API HTTP (ej: :8080)")
	userAgent := fs.String("user-agent", DefaultUserAgent, "User-Agent de las fuentes HTTP")
	proxy := fs.String("proxy", "", "Proxy HTTP/HTTPS (ej: http://127.0.0.1:8080)")
	proxyCA := fs.String("proxy-ca", "", "Ruta a un certificado CA adicional para mitm proxies")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(os.Stderr)
			fmt.Fprintln(os.Stderr, "Uso: abuse-rec [flags] <dominio>")
			fs.PrintDefaults()
			return nil, err
		}
		return nil, perrors.NewConfigurationError("flags", strings.Join(args, " "), err.Error(), "Ejecuta con -h para ver los flags disponibles")
	}

	setFlags := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg := &Config{
		Domain:        strings.TrimSpace(*domain),
		TimeoutMS:     *timeout,
		Verbosity:     *verbosity,
		LogJSON:       *logJSON,
		WhoisServer:   strings.TrimSpace(*whoisServer),
		RDAPBase:      strings.TrimSpace(*rdapBase),
		RDAPBootstrap: *rdapBootstrap,
		AltAPIBase:    strings.TrimSpace(*altAPIBase),
		ScrapeBase:    strings.TrimSpace(*scrapeBase),
		Disable:       cleanStringSlice(strings.Split(*disable, ",")),
		Resolver:      strings.TrimSpace(*resolver),
		Subdomains:    *subdomains,
		ScanRate:      *scanRate,
		Serve:         strings.TrimSpace(*serve),
		UserAgent:     strings.TrimSpace(*userAgent),
		Proxy:         strings.TrimSpace(*proxy),
		ProxyCACert:   strings.TrimSpace(*proxyCA),
	}
	if cfg.Domain == "" && fs.NArg() > 0 {
		cfg.Domain = strings.TrimSpace(fs.Arg(0))
		setFlags["domain"] = true
	}

	if *configPath != "" {
		fileCfg, err := readConfigFile(*configPath)
		if err != nil {
			return nil, err
		}
		applyFile(cfg, fileCfg, setFlags)
	}

	return cfg, nil
}

func readConfigFile(path string) (*fileConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, perrors.NewConfigurationError("config", path, "el archivo de configuración no existe", "Verifica la ruta pasada a -config")
		}
		return nil, perrors.NewConfigurationError("config", path, "no se pudo acceder al archivo: "+err.Error(), "Verifica los permisos del archivo")
	}
	if info.IsDir() {
		return nil, perrors.NewConfigurationError("config", path, "la ruta apunta a un directorio", "Pasa la ruta de un archivo YAML o JSON")
	}
	fc, err := loadConfigFile(path)
	if err != nil {
		return nil, perrors.NewConfigurationError("config", path, "no se pudo leer la configuración: "+err.Error(), "Revisa la sintaxis YAML/JSON del archivo")
	}
	return fc, nil
}

func applyFile(cfg *Config, fileCfg *fileConfig, setFlags map[string]bool) {
	str := func(dst *string, v *string, name string) {
		if v != nil && !setFlags[name] {
			*dst = strings.TrimSpace(*v)
		}
	}
	boolean := func(dst *bool, v *bool, name string) {
		if v != nil && !setFlags[name] {
			*dst = *v
		}
	}

	str(&cfg.Domain, fileCfg.Domain, "domain")
	str(&cfg.WhoisServer, fileCfg.WhoisServer, "whois-server")
	str(&cfg.RDAPBase, fileCfg.RDAPBase, "rdap-base")
	str(&cfg.AltAPIBase, fileCfg.AltAPIBase, "altapi-base")
	str(&cfg.ScrapeBase, fileCfg.ScrapeBase, "scrape-base")
	str(&cfg.Resolver, fileCfg.Resolver, "resolver")
	str(&cfg.Serve, fileCfg.Serve, "serve")
	str(&cfg.UserAgent, fileCfg.UserAgent, "user-agent")
	str(&cfg.Proxy, fileCfg.Proxy, "proxy")
	str(&cfg.ProxyCACert, fileCfg.ProxyCACert, "proxy-ca")
	boolean(&cfg.LogJSON, fileCfg.LogJSON, "log-json")
	boolean(&cfg.RDAPBootstrap, fileCfg.RDAPBootstrap, "rdap-bootstrap")
	boolean(&cfg.Subdomains, fileCfg.Subdomains, "subdomains")

	if fileCfg.TimeoutMS != nil && !setFlags["timeout"] {
		cfg.TimeoutMS = *fileCfg.TimeoutMS
	}
	if fileCfg.Verbosity != nil && !setFlags["v"] {
		cfg.Verbosity = *fileCfg.Verbosity
	}
	if fileCfg.ScanRate != nil && !setFlags["scan-rate"] {
		cfg.ScanRate = *fileCfg.ScanRate
	}
	if fileCfg.Disable != nil && !setFlags["disable"] {
		cfg.Disable = cleanStringSlice([]string(*fileCfg.Disable))
	}
}

func loadConfigFile(path string) (*fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg fileConfig
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
	case ".json":
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return nil, err
			}
		}
	}

	return &cfg, nil
}

// Validate comprueba la coherencia de la configuración. Sin -serve hace
// falta un dominio sintácticamente válido.
func (c *Config) Validate() error {
	if c.Serve == "" {
		if c.Domain == "" {
			return perrors.NewConfigurationError("domain", "", "no se indicó un dominio", "Usa: abuse-rec -domain example.com  o  abuse-rec -serve :8080")
		}
		if d := netutil.CleanLookupDomain(c.Domain); !netutil.ValidLookupDomain(d) {
			return perrors.NewConfigurationError("domain", c.Domain, "dominio inválido", "Pasa un nombre de dominio como example.com")
		}
	}
	if c.TimeoutMS <= 0 {
		return perrors.NewConfigurationError("timeout", strconv.Itoa(c.TimeoutMS), "debe ser mayor que cero", fmt.Sprintf("Usa el valor por defecto: -timeout=%d", DefaultTimeoutMS))
	}
	if c.ScanRate < 0 {
		return perrors.NewConfigurationError("scan-rate", strconv.FormatFloat(c.ScanRate, 'f', -1, 64), "no puede ser negativo", "Usa -scan-rate=0 para no limitar el escaneo")
	}
	for name, base := range map[string]string{"rdap-base": c.RDAPBase, "altapi-base": c.AltAPIBase, "scrape-base": c.ScrapeBase} {
		if err := validateBaseURL(name, base); err != nil {
			return err
		}
	}
	if c.Resolver != "" {
		host := c.Resolver
		if h, _, err := net.SplitHostPort(c.Resolver); err == nil {
			host = h
		}
		if host == "" || strings.ContainsAny(host, " /") {
			return perrors.NewConfigurationError("resolver", c.Resolver, "dirección inválida", "Usa host:puerto, ej: -resolver=1.1.1.1:53")
		}
	}
	if c.Serve != "" {
		if _, _, err := net.SplitHostPort(c.Serve); err != nil {
			return perrors.NewConfigurationError("serve", c.Serve, "dirección de escucha inválida", "Usa host:puerto o :puerto, ej: -serve=:8080")
		}
	}
	return nil
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return perrors.NewConfigurationError(name, raw, "debe ser una URL http(s) absoluta", "Ejemplo: -"+name+"=https://host/ruta")
	}
	return nil
}

func cleanStringSlice(values []string) []string {
	list := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			list = append(list, v)
		}
	}
	return list
}

// ApplyProxy configura las variables de entorno estándar de proxy para que
// los clientes HTTP de las fuentes lo usen. El proxy debe incluir esquema y
// host (ej: http://127.0.0.1:8080). Si no responde solo se avisa.
func ApplyProxy(proxy string) error {
	proxy = strings.TrimSpace(proxy)
	if proxy == "" {
		return nil
	}

	parsed, err := url.Parse(proxy)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return perrors.NewConfigurationError("proxy", proxy, "debe incluir esquema y host", "Ejemplo: -proxy=http://127.0.0.1:8080")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return perrors.NewConfigurationError("proxy", proxy, fmt.Sprintf("esquema %q no soportado (solo http/https)", parsed.Scheme), "Ejemplo: -proxy=http://127.0.0.1:8080")
	}

	if err := validateProxyConnectivity(parsed); err != nil {
		logx.Warn("No se pudo verificar conectividad del proxy", logx.Fields{"proxy": proxy, "error": err})
	}

	envVars := []string{"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy"}
	for _, key := range envVars {
		if err := os.Setenv(key, proxy); err != nil {
			return fmt.Errorf("no se pudo configurar %s: %w", key, err)
		}
	}
	return nil
}

func validateProxyConnectivity(proxyURL *url.URL) error {
	host := proxyURL.Host
	if proxyURL.Port() == "" {
		if proxyURL.Scheme == "https" {
			host = net.JoinHostPort(proxyURL.Hostname(), "443")
		} else {
			host = net.JoinHostPort(proxyURL.Hostname(), "80")
		}
	}

	conn, err := net.DialTimeout("tcp", host, 3*time.Second)
	if err != nil {
		return fmt.Errorf("no se pudo conectar al proxy en %s: %w", host, err)
	}
	conn.Close()
	return nil
}

// ConfigureRootCAs añade un bundle de CAs al transporte HTTP por defecto, que
// es el que usan las fuentes RDAP, alt-api y scraped. Una ruta vacía no
// cambia nada.
func ConfigureRootCAs(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	pool, err := loadRootCAs(path)
	if err != nil {
		return err
	}
	return applyRootCAsToDefaultTransport(pool)
}

func loadRootCAs(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.NewConfigurationError("proxy-ca", path, "no se pudo leer el certificado: "+err.Error(), "Verifica la ruta del archivo PEM")
	}

	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if ok := pool.AppendCertsFromPEM(data); !ok {
		return nil, perrors.NewConfigurationError("proxy-ca", path, "no contiene certificados PEM válidos", "Exporta el certificado del proxy en formato PEM")
	}
	return pool, nil
}

func applyRootCAsToDefaultTransport(pool *x509.CertPool) error {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return errors.New("http.DefaultTransport no es *http.Transport")
	}

	clone := base.Clone()
	var tlsConfig *tls.Config
	if clone.TLSClientConfig != nil {
		tlsConfig = clone.TLSClientConfig.Clone()
	} else {
		tlsConfig = &tls.Config{}
	}
	tlsConfig.RootCAs = pool
	clone.TLSClientConfig = tlsConfig
	http.DefaultTransport = clone
	return nil
}
