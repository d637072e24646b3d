/*
Package iso7816 implements the APDU layer used to reach the file system of a UICC
according to ISO/IEC 7816-4 and ETSI TS 102 221.

It provides Command and Response APDU encoding, Status Word (SW) analysis, a Client that
handles the T=0 transport procedures (61XX, 6CXX) and the handful of commands a record
reader needs: SELECT (with FCP), READ BINARY, READ RECORD and VERIFY used as a PIN
status query.

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX: Success, XX bytes of response data are still available.
  - 0x6CXX: Wrong Le, XX is the correct length.
  - 0x63CX: Verification failed or not performed, X retries left.

Non-success words surface as *StatusError, so callers can tell a card refusal
(file not found, security status not satisfied) from a transport failure:

	_, err := client.Do(ctx, iso7816.SelectByPath(cls, iso7816.Path(iso7816.FID_ADF, iso7816.FID_IMSI)))
	var se *iso7816.StatusError
	if errors.As(err, &se) && se.Status == iso7816.SW_ERR_FILE_NOT_FOUND {
	    // EF missing on this card
	}
*/
package iso7816
