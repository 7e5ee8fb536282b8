package html

import (
	"fmt"

	sessioncookie "receiptstudio/infrastructure/session"
)

var csrfFormScript = fmt.Sprintf(`<script>
(function () {
  function csrfToken() {
    var match = document.cookie.match(/(?:^|;\s*)%[1]s=([^;]*)/);
    return match ? decodeURIComponent(match[1]) : "";
  }
  window.csrfHeaders = function (headers) {
    headers = headers || {};
    headers[%[2]q] = csrfToken();
    return headers;
  };
  document.addEventListener("submit", function (e) {
    var form = e.target;
    if ((form.getAttribute("method") || "get").toLowerCase() !== "post") { return; }
    var field = form.querySelector("input[name='%[3]s']");
    if (!field) {
      field = document.createElement("input");
      field.type = "hidden";
      field.name = %[3]q;
      form.appendChild(field);
    }
    field.value = csrfToken();
  }, true);
})();
</script>`, sessioncookie.CSRFCookieName, sessioncookie.CSRFHeader, sessioncookie.CSRFField)

// CSRFFormScript copies the CSRF cookie into POST forms as they are submitted and
// exposes csrfHeaders() for fetch calls.
func CSRFFormScript() string {
	return csrfFormScript
}
